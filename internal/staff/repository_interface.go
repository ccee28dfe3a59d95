package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateBusinessWithOwner(ctx context.Context, b *Business, owner *Staff) (*Business, *Staff, error)
	Create(ctx context.Context, s *Staff) (*Staff, error)
	FindByEmail(ctx context.Context, email string) (*Staff, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Staff, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetBusiness(ctx context.Context, id uuid.UUID) (*Business, error)
}
