package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidPlan      = errors.New("invalid plan")
	ErrPlanTypeMismatch = errors.New("plan type does not match session count")
)

type Service interface {
	Create(ctx context.Context, businessID uuid.UUID, req CreatePlanRequest) (*Plan, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*Plan, error)
	List(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]Plan, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req UpdatePlanRequest) (*Plan, error)
	Deactivate(ctx context.Context, businessID, id uuid.UUID) (*Plan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Validate checks the shape rules shared by create and update: a package
// carries more than one session, a single exactly one, a subscription none.
// Durations are capped at MaxDurationDays.
func Validate(p *Plan) error {
	if p.Name == "" || p.DurationDays < 0 || p.DurationDays > MaxDurationDays || p.Sessions < 0 || p.Price.IsNegative() {
		return ErrInvalidPlan
	}
	switch p.PlanType {
	case TypePackage:
		if p.Sessions <= 1 {
			return ErrPlanTypeMismatch
		}
	case TypeSingle:
		if p.Sessions != 1 {
			return ErrPlanTypeMismatch
		}
	case TypeSubscription:
		if p.Sessions != 0 {
			return ErrPlanTypeMismatch
		}
	default:
		return ErrInvalidPlan
	}
	return nil
}

func (s *service) Create(ctx context.Context, businessID uuid.UUID, req CreatePlanRequest) (*Plan, error) {
	p := &Plan{
		BusinessID:   businessID,
		Name:         req.Name,
		PlanType:     req.PlanType,
		DurationDays: req.DurationDays,
		Sessions:     req.Sessions,
		Price:        req.Price,
		IsActive:     true,
	}
	if p.PlanType == "" {
		p.PlanType = InferType(p.Sessions)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *service) Get(ctx context.Context, businessID, id uuid.UUID) (*Plan, error) {
	return s.repo.GetByID(ctx, businessID, id)
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]Plan, error) {
	return s.repo.List(ctx, businessID, activeOnly)
}

func (s *service) Update(ctx context.Context, businessID, id uuid.UUID, req UpdatePlanRequest) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.DurationDays != nil {
		p.DurationDays = *req.DurationDays
	}
	if req.Sessions != nil {
		p.Sessions = *req.Sessions
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

func (s *service) Deactivate(ctx context.Context, businessID, id uuid.UUID) (*Plan, error) {
	inactive := false
	return s.Update(ctx, businessID, id, UpdatePlanRequest{IsActive: &inactive})
}
