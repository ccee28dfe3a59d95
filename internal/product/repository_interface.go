package product

import (
	"context"

	"kestiv/internal/api"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*Product, error)
	List(ctx context.Context, businessID uuid.UUID, activeOnly bool, page api.Page) ([]Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta int) (*Product, error)
}
