package transaction

import (
	"context"
	"time"

	"kestiv/internal/api"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) (*Transaction, error)
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, page api.Page) ([]Transaction, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]MethodTotal, error)
	CreateSale(ctx context.Context, businessID uuid.UUID, req CreateSaleRequest) (*Transaction, error)
	Daily(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]DailyTotal, error)
	ByType(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]TypeTotal, error)
}
