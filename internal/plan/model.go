package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is how a plan is consumed: by time, by a counted package of sessions,
// or as a single session.
type Type string

const (
	TypeSubscription Type = "subscription"
	TypePackage      Type = "package"
	TypeSingle       Type = "single"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSubscription, TypePackage, TypeSingle:
		return true
	}
	return false
}

// CountBased reports whether session counters govern the plan.
func (t Type) CountBased() bool {
	return t == TypePackage || t == TypeSingle
}

// InferType derives a plan type from a session count for rows that predate
// the explicit plan_type column.
func InferType(sessions int) Type {
	switch {
	case sessions == 1:
		return TypeSingle
	case sessions > 1:
		return TypePackage
	default:
		return TypeSubscription
	}
}

type Plan struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	BusinessID   uuid.UUID       `db:"business_id" json:"business_id"`
	Name         string          `db:"name" json:"name"`
	PlanType     Type            `db:"plan_type" json:"plan_type"`
	DurationDays float64         `db:"duration_days" json:"duration_days"`
	Sessions     int             `db:"sessions" json:"sessions"`
	Price        decimal.Decimal `db:"price" json:"price"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Duration is the validity window of a time-based plan. Zero means unlimited.
// MaxDurationDays keeps Duration well inside the range of time.Duration.
const MaxDurationDays = 36500

func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays * float64(24*time.Hour))
}

type CreatePlanRequest struct {
	Name         string          `json:"name" binding:"required,max=120"`
	PlanType     Type            `json:"plan_type,omitempty"`
	DurationDays float64         `json:"duration_days" binding:"gte=0,lte=36500"`
	Sessions     int             `json:"sessions"`
	Price        decimal.Decimal `json:"price"`
}

type UpdatePlanRequest struct {
	Name         *string          `json:"name,omitempty" binding:"omitempty,max=120"`
	DurationDays *float64         `json:"duration_days,omitempty" binding:"omitempty,gte=0,lte=36500"`
	Sessions     *int             `json:"sessions,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}
