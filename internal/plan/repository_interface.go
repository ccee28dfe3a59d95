package plan

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Plan) (*Plan, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*Plan, error)
	List(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]Plan, error)
	Update(ctx context.Context, p *Plan) (*Plan, error)
}
