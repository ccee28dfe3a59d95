package transaction

import (
	"context"
	"errors"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/logger"
	"kestiv/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRange   = errors.New("invalid summary range")
	ErrInvalidGroupBy = errors.New("group_by must be day or type")
)

type Service interface {
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter, page api.Page) ([]Transaction, error)
	Summary(ctx context.Context, businessID uuid.UUID, from, to time.Time) (*Summary, error)
	CreateSale(ctx context.Context, businessID uuid.UUID, req CreateSaleRequest) (*Transaction, error)
	Analytics(ctx context.Context, businessID uuid.UUID, groupBy string, from, to time.Time) (*Analytics, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, filter ListFilter, page api.Page) ([]Transaction, error) {
	return s.repo.List(ctx, businessID, filter, page)
}

// Summary totals takings per payment method over [from, to).
func (s *service) Summary(ctx context.Context, businessID uuid.UUID, from, to time.Time) (*Summary, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	byMethod, err := s.repo.Summary(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, m := range byMethod {
		total = total.Add(m.Total)
	}
	return &Summary{From: from, To: to, ByMethod: byMethod, Total: total}, nil
}

func (s *service) CreateSale(ctx context.Context, businessID uuid.UUID, req CreateSaleRequest) (*Transaction, error) {
	sale, err := s.repo.CreateSale(ctx, businessID, req)
	if err != nil {
		return nil, err
	}

	amount, _ := sale.Amount.Float64()
	metrics.RecordTransaction(string(sale.Type), string(sale.PaymentMethod), amount)
	logger.Info("sale recorded", "business_id", businessID, "transaction_id", sale.ID, "items", len(sale.Items))
	return sale, nil
}

func (s *service) Analytics(ctx context.Context, businessID uuid.UUID, groupBy string, from, to time.Time) (*Analytics, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	out := &Analytics{GroupBy: groupBy, From: from, To: to}
	var err error
	switch groupBy {
	case GroupByDay:
		out.Days, err = s.repo.Daily(ctx, businessID, from, to)
	case GroupByType:
		out.Types, err = s.repo.ByType(ctx, businessID, from, to)
	default:
		return nil, ErrInvalidGroupBy
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
