package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodDebt PaymentMethod = "debt"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodDebt
}

// Type is what a transaction paid for.
type Type string

const (
	TypeSubscription Type = "subscription"
	TypeSession      Type = "session"
	TypeService      Type = "service"
	TypeSale         Type = "sale"
	TypeDebtPayment  Type = "debt_payment"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSubscription, TypeSession, TypeService, TypeSale, TypeDebtPayment:
		return true
	}
	return false
}

// LineItem is one product row of a sale, priced at the time of sale.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Transaction is an append-only monetary record.
type Transaction struct {
	ID            uuid.UUID                     `db:"id" json:"id"`
	BusinessID    uuid.UUID                     `db:"business_id" json:"business_id"`
	MemberID      *uuid.UUID                    `db:"member_id" json:"member_id,omitempty"`
	Type          Type                          `db:"type" json:"type"`
	Amount        decimal.Decimal               `db:"amount" json:"amount"`
	PaymentMethod PaymentMethod                 `db:"payment_method" json:"payment_method"`
	Items         datatypes.JSONSlice[LineItem] `db:"items" json:"items" swaggertype:"array,object"`
	Notes         *string                       `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time                     `db:"created_at" json:"created_at"`
}

type ListFilter struct {
	Type     Type       `form:"type"`
	MemberID *uuid.UUID `form:"-"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// MethodTotal is the takings for one payment method in a summary window.
type MethodTotal struct {
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
	Count         int             `db:"count" json:"count"`
	Total         decimal.Decimal `db:"total" json:"total"`
}

type Summary struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	ByMethod []MethodTotal   `json:"by_method"`
	Total    decimal.Decimal `json:"total"`
}

const (
	GroupByDay  = "day"
	GroupByType = "type"
)

// DailyTotal is one UTC calendar day of takings split by payment method.
type DailyTotal struct {
	Day   string          `db:"day" json:"day"`
	Count int             `db:"count" json:"count"`
	Cash  decimal.Decimal `db:"cash" json:"cash"`
	Debt  decimal.Decimal `db:"debt" json:"debt"`
}

type TypeTotal struct {
	Type  Type            `db:"type" json:"type"`
	Count int             `db:"count" json:"count"`
	Total decimal.Decimal `db:"total" json:"total"`
}

type Analytics struct {
	GroupBy string       `json:"group_by"`
	From    time.Time    `json:"from"`
	To      time.Time    `json:"to"`
	Days    []DailyTotal `json:"days,omitempty"`
	Types   []TypeTotal  `json:"types,omitempty"`
}

type SaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod PaymentMethod     `json:"payment_method" binding:"required,oneof=cash debt"`
	MemberID      *uuid.UUID        `json:"member_id,omitempty"`
	Notes         *string           `json:"notes,omitempty" binding:"omitempty,max=500"`
}
