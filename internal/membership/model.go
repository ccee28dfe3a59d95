package membership

import (
	"time"

	"kestiv/internal/plan"
	"kestiv/internal/transaction"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is derived from a member record and the current time. It is never
// stored.
type Status string

const (
	StatusNoPlan       Status = "no_plan"
	StatusFrozen       Status = "frozen"
	StatusSingleUsed   Status = "single_used"
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNoPlan, StatusFrozen, StatusSingleUsed, StatusActive, StatusExpiringSoon, StatusExpired:
		return true
	}
	return false
}

// EntryType names the kind of change a history entry records.
type EntryType string

const (
	EntrySubscription EntryType = "subscription"
	EntryPlanChange   EntryType = "plan_change"
	EntrySessionUse   EntryType = "session_use"
	EntrySessionAdd   EntryType = "session_add"
	EntryFreeze       EntryType = "freeze"
	EntryUnfreeze     EntryType = "unfreeze"
	EntryCancellation EntryType = "cancellation"
	EntryService      EntryType = "service"
)

type Member struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	BusinessID    uuid.UUID       `db:"business_id" json:"business_id"`
	Name          string          `db:"name" json:"name"`
	Phone         string          `db:"phone" json:"phone"`
	Email         *string         `db:"email" json:"email,omitempty"`
	PlanID        *uuid.UUID      `db:"plan_id" json:"plan_id,omitempty"`
	PlanName      *string         `db:"plan_name" json:"plan_name,omitempty"`
	PlanType      *plan.Type      `db:"plan_type" json:"plan_type,omitempty"`
	PlanStartAt   *time.Time      `db:"plan_start_at" json:"plan_start_at,omitempty"`
	ExpiresAt     *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	SessionsTotal int             `db:"sessions_total" json:"sessions_total"`
	SessionsUsed  int             `db:"sessions_used" json:"sessions_used"`
	IsFrozen      bool            `db:"is_frozen" json:"is_frozen"`
	FrozenAt      *time.Time      `db:"frozen_at" json:"frozen_at,omitempty"`
	Debt          decimal.Decimal `db:"debt" json:"debt"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// HistoryEntry is one append-only ledger row describing a membership change.
type HistoryEntry struct {
	ID             uuid.UUID                  `db:"id" json:"id"`
	BusinessID     uuid.UUID                  `db:"business_id" json:"business_id"`
	MemberID       uuid.UUID                  `db:"member_id" json:"member_id"`
	Type           EntryType                  `db:"type" json:"type"`
	Amount         decimal.NullDecimal        `db:"amount" json:"amount" swaggertype:"string"`
	PaymentMethod  *transaction.PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	SessionsBefore *int                       `db:"sessions_before" json:"sessions_before,omitempty"`
	SessionsAfter  *int                       `db:"sessions_after" json:"sessions_after,omitempty"`
	SessionsAdded  *int                       `db:"sessions_added" json:"sessions_added,omitempty"`
	OldPlanName    *string                    `db:"old_plan_name" json:"old_plan_name,omitempty"`
	NewPlanName    *string                    `db:"new_plan_name" json:"new_plan_name,omitempty"`
	Notes          *string                    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time                  `db:"created_at" json:"created_at"`
}

// View is a member together with the values derived from it at read time.
type View struct {
	Member
	Status            Status `json:"status"`
	DaysLeft          *int   `json:"days_left,omitempty"`
	SessionsRemaining *int   `json:"sessions_remaining,omitempty"`
}

// Result is what a mutation operation hands back to callers.
type Result struct {
	Member      View                     `json:"member"`
	Entry       *HistoryEntry            `json:"entry,omitempty"`
	Transaction *transaction.Transaction `json:"transaction,omitempty"`
}

// ExpiringMember is a reminder candidate joined with its business name.
type ExpiringMember struct {
	Member
	BusinessName string `db:"business_name"`
}

type CreateMemberRequest struct {
	Name  string  `json:"name" binding:"required,max=120"`
	Phone string  `json:"phone" binding:"required,max=32"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Notes *string `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

type UpdateMemberRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,min=1,max=32"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Notes *string `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

type ListQuery struct {
	Search string `form:"search"`
	Status Status `form:"status"`
}

type ChangePlanRequest struct {
	PlanID        uuid.UUID                 `json:"plan_id" binding:"required"`
	PaymentMethod transaction.PaymentMethod `json:"payment_method" binding:"required,oneof=cash debt"`
}

type RenewRequest struct {
	PaymentMethod transaction.PaymentMethod `json:"payment_method" binding:"required,oneof=cash debt"`
}

type AddSessionsRequest struct {
	Count         int                       `json:"count" binding:"required,min=1"`
	Amount        decimal.Decimal           `json:"amount"`
	PaymentMethod transaction.PaymentMethod `json:"payment_method,omitempty" binding:"omitempty,oneof=cash debt"`
}

type ReasonRequest struct {
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

type AddServiceRequest struct {
	Name          string                    `json:"name" binding:"required,max=120"`
	Price         decimal.Decimal           `json:"price"`
	PaymentMethod transaction.PaymentMethod `json:"payment_method" binding:"required,oneof=cash debt"`
}

type RepayDebtRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
