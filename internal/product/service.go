package product

import (
	"context"
	"errors"

	"kestiv/internal/api"
	"kestiv/internal/logger"

	"github.com/google/uuid"
)

var ErrInvalidProduct = errors.New("invalid product")

type Service interface {
	Create(ctx context.Context, businessID uuid.UUID, req CreateProductRequest) (*Product, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*Product, error)
	List(ctx context.Context, businessID uuid.UUID, activeOnly bool, page api.Page) ([]Product, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req UpdateProductRequest) (*Product, error)
	AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta int) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, businessID uuid.UUID, req CreateProductRequest) (*Product, error) {
	if req.Price.IsNegative() || req.Stock < 0 {
		return nil, ErrInvalidProduct
	}
	return s.repo.Create(ctx, &Product{
		BusinessID: businessID,
		Name:       req.Name,
		SKU:        req.SKU,
		Price:      req.Price,
		Stock:      req.Stock,
		IsActive:   true,
	})
}

func (s *service) Get(ctx context.Context, businessID, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, businessID, id)
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, activeOnly bool, page api.Page) ([]Product, error) {
	return s.repo.List(ctx, businessID, activeOnly, page)
}

func (s *service) Update(ctx context.Context, businessID, id uuid.UUID, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SKU != nil {
		p.SKU = req.SKU
		if *req.SKU == "" {
			p.SKU = nil
		}
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidProduct
		}
		p.Price = *req.Price
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return s.repo.Update(ctx, p)
}

func (s *service) AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta int) (*Product, error) {
	if delta == 0 {
		return nil, ErrInvalidProduct
	}
	p, err := s.repo.AdjustStock(ctx, businessID, id, delta)
	if err != nil {
		return nil, err
	}
	logger.Info("stock adjusted", "product_id", id, "delta", delta, "stock", p.Stock)
	return p, nil
}
