package plan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, business_id, name, plan_type, duration_days, sessions, price, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		INSERT INTO subscription_plans (business_id, name, plan_type, duration_days, sessions, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + planColumns

	var created Plan
	err := r.db.GetContext(ctx, &created, query,
		p.BusinessID, p.Name, p.PlanType, p.DurationDays, p.Sessions, p.Price, p.IsActive)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE business_id = $1 AND id = $2
	`

	var p Plan
	if err := r.db.GetContext(ctx, &p, query, businessID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, businessID uuid.UUID, activeOnly bool) ([]Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM subscription_plans
		WHERE business_id = $1 AND ($2 = FALSE OR is_active = TRUE)
		ORDER BY price ASC, name ASC
	`

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, businessID, activeOnly); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) Update(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		UPDATE subscription_plans
		SET name = $1, duration_days = $2, sessions = $3, price = $4, is_active = $5, updated_at = NOW()
		WHERE business_id = $6 AND id = $7
		RETURNING ` + planColumns

	var updated Plan
	err := r.db.GetContext(ctx, &updated, query,
		p.Name, p.DurationDays, p.Sessions, p.Price, p.IsActive, p.BusinessID, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &updated, nil
}
