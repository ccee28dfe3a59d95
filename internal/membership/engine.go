package membership

import (
	"errors"
	"fmt"
	"math"
	"time"

	"kestiv/internal/plan"
	"kestiv/internal/transaction"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// ExpiringSoonDays is the window in which a subscription reads as expiring_soon.
const ExpiringSoonDays = 7

var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrNoPlan               = errors.New("member has no plan")
	ErrNotSessionPlan       = errors.New("plan is not session based")
	ErrNoSessionsLeft       = errors.New("no sessions left")
	ErrInvalidCount         = errors.New("session count must be positive")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrPlanInactive         = errors.New("plan is inactive")
	ErrPlanMismatch         = errors.New("plan does not match the member's current plan")
	ErrAlreadyFrozen        = errors.New("member is already frozen")
	ErrNotFrozen            = errors.New("member is not frozen")
	ErrMemberFrozen         = errors.New("member is frozen")
	ErrRepaymentExceedsDebt = errors.New("repayment exceeds outstanding debt")
)

// Mutation is the outcome of one operation: the member's new state, the
// history entry describing it and the transaction to record, if any. Entry
// is nil only for debt repayments.
type Mutation struct {
	Member      Member
	Entry       *HistoryEntry
	Transaction *transaction.Transaction
}

// PlanType returns the plan type that governs m, inferring it from the
// session count for records that never stored one.
func PlanType(m Member) plan.Type {
	if m.PlanType != nil && m.PlanType.Valid() {
		return *m.PlanType
	}
	return plan.InferType(m.SessionsTotal)
}

// Remaining is the number of unused sessions.
func Remaining(m Member) int {
	return m.SessionsTotal - m.SessionsUsed
}

// DaysLeft counts whole days until expiresAt, rounding partial days up.
func DaysLeft(expiresAt, now time.Time) int {
	return int(math.Ceil(float64(expiresAt.Sub(now)) / float64(day)))
}

// DeriveStatus classifies m at now. Freeze dominates every plan state.
func DeriveStatus(m Member, now time.Time) Status {
	if m.PlanID == nil {
		return StatusNoPlan
	}
	if m.IsFrozen {
		return StatusFrozen
	}

	switch PlanType(m) {
	case plan.TypeSingle:
		return StatusSingleUsed
	case plan.TypePackage:
		if Remaining(m) <= 0 {
			return StatusExpired
		}
		return StatusActive
	default:
		if m.ExpiresAt == nil {
			return StatusActive
		}
		switch left := DaysLeft(*m.ExpiresAt, now); {
		case left <= 0:
			return StatusExpired
		case left <= ExpiringSoonDays:
			return StatusExpiringSoon
		default:
			return StatusActive
		}
	}
}

// NewView attaches the derived fields to m.
func NewView(m Member, now time.Time) View {
	v := View{Member: m, Status: DeriveStatus(m, now)}
	if m.PlanID == nil {
		return v
	}
	switch t := PlanType(m); {
	case t.CountBased():
		r := Remaining(m)
		v.SessionsRemaining = &r
	case m.ExpiresAt != nil:
		d := DaysLeft(*m.ExpiresAt, now)
		v.DaysLeft = &d
	}
	return v
}

func newEntry(m Member, t EntryType, now time.Time) *HistoryEntry {
	return &HistoryEntry{
		BusinessID: m.BusinessID,
		MemberID:   m.ID,
		Type:       t,
		CreatedAt:  now,
	}
}

func cashTransaction(m Member, t transaction.Type, amount decimal.Decimal, method transaction.PaymentMethod, now time.Time) *transaction.Transaction {
	if method != transaction.MethodCash || !amount.IsPositive() {
		return nil
	}
	id := m.ID
	return &transaction.Transaction{
		BusinessID:    m.BusinessID,
		MemberID:      &id,
		Type:          t,
		Amount:        amount,
		PaymentMethod: method,
		CreatedAt:     now,
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func methodPtr(v transaction.PaymentMethod) *transaction.PaymentMethod { return &v }

func requireSessionPlan(m Member) error {
	if m.PlanID == nil {
		return ErrNoPlan
	}
	if !PlanType(m).CountBased() {
		return ErrNotSessionPlan
	}
	return nil
}

// UseSession consumes one session of a package or single plan.
func UseSession(m Member, now time.Time) (*Mutation, error) {
	if err := requireSessionPlan(m); err != nil {
		return nil, err
	}
	if m.IsFrozen {
		return nil, ErrMemberFrozen
	}
	before := Remaining(m)
	if before <= 0 {
		return nil, ErrNoSessionsLeft
	}

	m.SessionsUsed++

	e := newEntry(m, EntrySessionUse, now)
	e.SessionsBefore = intPtr(before)
	e.SessionsAfter = intPtr(Remaining(m))
	return &Mutation{Member: m, Entry: e}, nil
}

// AddSessions extends a session plan by n. A positive amount is charged with
// method: added to debt, or recorded as a cash transaction.
func AddSessions(m Member, now time.Time, n int, amount decimal.Decimal, method transaction.PaymentMethod) (*Mutation, error) {
	if err := requireSessionPlan(m); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	paid := amount.IsPositive()
	if paid && !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	before := Remaining(m)
	m.SessionsTotal += n
	if paid && method == transaction.MethodDebt {
		m.Debt = m.Debt.Add(amount)
	}

	e := newEntry(m, EntrySessionAdd, now)
	e.SessionsBefore = intPtr(before)
	e.SessionsAfter = intPtr(Remaining(m))
	e.SessionsAdded = intPtr(n)
	if paid {
		e.Amount = decimal.NewNullDecimal(amount)
		e.PaymentMethod = methodPtr(method)
	}
	return &Mutation{
		Member:      m,
		Entry:       e,
		Transaction: cashTransaction(m, transaction.TypeSession, amount, method, now),
	}, nil
}

// assignPlan binds p to m with a validity window starting at start.
func assignPlan(m Member, p plan.Plan, now, start time.Time, method transaction.PaymentMethod, t EntryType) *Mutation {
	before := Remaining(m)
	var oldName *string
	if m.PlanID != nil && m.PlanName != nil {
		oldName = strPtr(*m.PlanName)
	}

	id, name, pt := p.ID, p.Name, p.PlanType
	if !pt.Valid() {
		pt = plan.InferType(p.Sessions)
	}
	startedAt := now
	m.PlanID = &id
	m.PlanName = &name
	m.PlanType = &pt
	m.PlanStartAt = &startedAt
	m.ExpiresAt = nil
	if d := p.Duration(); d > 0 {
		expires := start.Add(d)
		m.ExpiresAt = &expires
	}
	m.SessionsTotal, m.SessionsUsed = 0, 0
	if pt.CountBased() {
		m.SessionsTotal = p.Sessions
	}
	// A single visit is consumed when it is sold.
	if pt == plan.TypeSingle {
		m.SessionsUsed = 1
	}
	m.IsFrozen = false
	m.FrozenAt = nil
	if method == transaction.MethodDebt {
		m.Debt = m.Debt.Add(p.Price)
	}

	e := newEntry(m, t, now)
	e.Amount = decimal.NewNullDecimal(p.Price)
	e.PaymentMethod = methodPtr(method)
	e.OldPlanName = oldName
	e.NewPlanName = strPtr(name)
	if pt.CountBased() {
		e.SessionsBefore = intPtr(before)
		e.SessionsAfter = intPtr(Remaining(m))
	}
	return &Mutation{
		Member:      m,
		Entry:       e,
		Transaction: cashTransaction(m, transaction.TypeSubscription, p.Price, method, now),
	}
}

func checkPlan(m Member, p plan.Plan, method transaction.PaymentMethod) error {
	if p.BusinessID != m.BusinessID {
		return plan.ErrPlanNotFound
	}
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// ChangePlan puts m on p starting now. The first plan a member gets is
// recorded as a subscription, later ones as plan changes.
func ChangePlan(m Member, now time.Time, p plan.Plan, method transaction.PaymentMethod) (*Mutation, error) {
	if err := checkPlan(m, p, method); err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPlanInactive
	}

	t := EntryPlanChange
	if m.PlanID == nil {
		t = EntrySubscription
	}
	return assignPlan(m, p, now, now, method, t), nil
}

// Renew buys another period of the member's current plan, which must still
// be on sale. An unexpired subscription is extended from its current expiry
// rather than from now.
func Renew(m Member, now time.Time, p plan.Plan, method transaction.PaymentMethod) (*Mutation, error) {
	if m.PlanID == nil {
		return nil, ErrNoPlan
	}
	if *m.PlanID != p.ID {
		return nil, ErrPlanMismatch
	}
	if err := checkPlan(m, p, method); err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPlanInactive
	}

	start := now
	if PlanType(m) == plan.TypeSubscription && m.ExpiresAt != nil && m.ExpiresAt.After(now) {
		start = *m.ExpiresAt
	}
	return assignPlan(m, p, now, start, method, EntrySubscription), nil
}

// Freeze suspends the membership countdown.
func Freeze(m Member, now time.Time, reason *string) (*Mutation, error) {
	if m.PlanID == nil {
		return nil, ErrNoPlan
	}
	if m.IsFrozen {
		return nil, ErrAlreadyFrozen
	}

	frozenAt := now
	m.IsFrozen = true
	m.FrozenAt = &frozenAt

	e := newEntry(m, EntryFreeze, now)
	e.Notes = reason
	return &Mutation{Member: m, Entry: e}, nil
}

// FrozenDays is the frozen interval rounded up to whole days.
func FrozenDays(frozenAt, now time.Time) int {
	if !now.After(frozenAt) {
		return 0
	}
	return DaysLeft(now, frozenAt)
}

// Unfreeze lifts a freeze and pushes the expiry back by the frozen days so
// the member keeps the time they paid for.
func Unfreeze(m Member, now time.Time) (*Mutation, error) {
	if !m.IsFrozen {
		return nil, ErrNotFrozen
	}

	days := 0
	if m.FrozenAt != nil {
		days = FrozenDays(*m.FrozenAt, now)
	}
	if m.ExpiresAt != nil {
		expires := m.ExpiresAt.Add(time.Duration(days) * day)
		m.ExpiresAt = &expires
	}
	m.IsFrozen = false
	m.FrozenAt = nil

	e := newEntry(m, EntryUnfreeze, now)
	e.Notes = strPtr(fmt.Sprintf("frozen for %d day(s)", days))
	return &Mutation{Member: m, Entry: e}, nil
}

// Cancel drops the member's plan. Debt and contact details are kept.
func Cancel(m Member, now time.Time, reason *string) (*Mutation, error) {
	if m.PlanID == nil {
		return nil, ErrNoPlan
	}

	e := newEntry(m, EntryCancellation, now)
	if m.PlanName != nil {
		e.OldPlanName = strPtr(*m.PlanName)
	}
	if PlanType(m).CountBased() {
		e.SessionsBefore = intPtr(Remaining(m))
		e.SessionsAfter = intPtr(0)
	}
	e.Notes = reason

	m.PlanID = nil
	m.PlanName = nil
	m.PlanType = nil
	m.PlanStartAt = nil
	m.ExpiresAt = nil
	m.SessionsTotal, m.SessionsUsed = 0, 0
	m.IsFrozen = false
	m.FrozenAt = nil
	return &Mutation{Member: m, Entry: e}, nil
}

// AddService sells a one-off service to the member. The member record is
// left untouched; the sale lives in the ledger and the transaction log.
func AddService(m Member, now time.Time, name string, price decimal.Decimal, method transaction.PaymentMethod) (*Mutation, error) {
	if name == "" || !price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	e := newEntry(m, EntryService, now)
	e.Amount = decimal.NewNullDecimal(price)
	e.PaymentMethod = methodPtr(method)
	e.Notes = strPtr(name)

	id := m.ID
	tx := &transaction.Transaction{
		BusinessID:    m.BusinessID,
		MemberID:      &id,
		Type:          transaction.TypeService,
		Amount:        price,
		PaymentMethod: method,
		Notes:         strPtr(name),
		CreatedAt:     now,
	}
	return &Mutation{Member: m, Entry: e, Transaction: tx}, nil
}

// RepayDebt records a cash payment against the member's debt.
func RepayDebt(m Member, now time.Time, amount decimal.Decimal) (*Mutation, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(m.Debt) {
		return nil, ErrRepaymentExceedsDebt
	}

	m.Debt = m.Debt.Sub(amount)
	return &Mutation{
		Member:      m,
		Transaction: cashTransaction(m, transaction.TypeDebtPayment, amount, transaction.MethodCash, now),
	}, nil
}
