package membership

import (
	"context"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/logger"
	"kestiv/internal/metrics"
	"kestiv/internal/plan"

	"github.com/google/uuid"
)

// Notifier delivers member-facing messages. It may be nil.
type Notifier interface {
	SendPlanConfirmation(ctx context.Context, to, name, planName string, expiresAt *time.Time) error
}

// PlanFinder is the slice of plan.Repository the service needs.
type PlanFinder interface {
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*plan.Plan, error)
}

type Service interface {
	Create(ctx context.Context, businessID uuid.UUID, req CreateMemberRequest) (*View, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*View, error)
	List(ctx context.Context, businessID uuid.UUID, q ListQuery, page api.Page) ([]View, error)
	Update(ctx context.Context, businessID, id uuid.UUID, req UpdateMemberRequest) (*View, error)
	History(ctx context.Context, businessID, id uuid.UUID, page api.Page) ([]HistoryEntry, error)

	ChangePlan(ctx context.Context, businessID, id uuid.UUID, req ChangePlanRequest) (*Result, error)
	Renew(ctx context.Context, businessID, id uuid.UUID, req RenewRequest) (*Result, error)
	UseSession(ctx context.Context, businessID, id uuid.UUID) (*Result, error)
	AddSessions(ctx context.Context, businessID, id uuid.UUID, req AddSessionsRequest) (*Result, error)
	Freeze(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error)
	Unfreeze(ctx context.Context, businessID, id uuid.UUID) (*Result, error)
	Cancel(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error)
	AddService(ctx context.Context, businessID, id uuid.UUID, req AddServiceRequest) (*Result, error)
	RepayDebt(ctx context.Context, businessID, id uuid.UUID, req RepayDebtRequest) (*Result, error)
}

type service struct {
	repo     Repository
	plans    PlanFinder
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, plans PlanFinder, notifier Notifier) Service {
	return &service{
		repo:     repo,
		plans:    plans,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, businessID uuid.UUID, req CreateMemberRequest) (*View, error) {
	m, err := s.repo.Create(ctx, &Member{
		BusinessID: businessID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	v := NewView(*m, s.now())
	return &v, nil
}

func (s *service) Get(ctx context.Context, businessID, id uuid.UUID) (*View, error) {
	m, err := s.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	v := NewView(*m, s.now())
	return &v, nil
}

// List derives status for every row. Status has no column, so a status
// filter loads all matching rows and pages the filtered views.
func (s *service) List(ctx context.Context, businessID uuid.UUID, q ListQuery, page api.Page) ([]View, error) {
	now := s.now()
	if q.Status == "" {
		members, err := s.repo.List(ctx, businessID, q.Search, page)
		if err != nil {
			return nil, err
		}
		views := make([]View, 0, len(members))
		for _, m := range members {
			views = append(views, NewView(m, now))
		}
		return views, nil
	}

	members, err := s.repo.Search(ctx, businessID, q.Search)
	if err != nil {
		return nil, err
	}
	views := []View{}
	for _, m := range members {
		if v := NewView(m, now); v.Status == q.Status {
			views = append(views, v)
		}
	}

	page = page.Normalize()
	if page.Offset >= len(views) {
		return []View{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(views) {
		end = len(views)
	}
	return views[page.Offset:end], nil
}

func (s *service) Update(ctx context.Context, businessID, id uuid.UUID, req UpdateMemberRequest) (*View, error) {
	m, err := s.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.Email != nil {
		m.Email = req.Email
		if *req.Email == "" {
			m.Email = nil
		}
	}
	if req.Notes != nil {
		m.Notes = req.Notes
	}

	updated, err := s.repo.UpdateContact(ctx, m)
	if err != nil {
		return nil, err
	}
	v := NewView(*updated, s.now())
	return &v, nil
}

func (s *service) History(ctx context.Context, businessID, id uuid.UUID, page api.Page) ([]HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, businessID, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, businessID, id, page)
}

// apply runs op against the locked member and reports the outcome.
func (s *service) apply(ctx context.Context, businessID, id uuid.UUID, op string, fn MutateFunc) (*Result, error) {
	now := s.now()
	mut, err := s.repo.Mutate(ctx, businessID, id, fn)
	metrics.RecordMemberMutation(op, err)
	if err != nil {
		logger.Debug("member mutation rejected", "op", op, "member_id", id, "error", err)
		return nil, err
	}

	logger.Info("member updated", "op", op, "member_id", id, "business_id", businessID)
	if tx := mut.Transaction; tx != nil {
		amount, _ := tx.Amount.Float64()
		metrics.RecordTransaction(string(tx.Type), string(tx.PaymentMethod), amount)
	}

	return &Result{
		Member:      NewView(mut.Member, now),
		Entry:       mut.Entry,
		Transaction: mut.Transaction,
	}, nil
}

func (s *service) confirmPlan(ctx context.Context, m Member) {
	if s.notifier == nil || m.Email == nil || *m.Email == "" || m.PlanName == nil {
		return
	}
	if err := s.notifier.SendPlanConfirmation(ctx, *m.Email, m.Name, *m.PlanName, m.ExpiresAt); err != nil {
		logger.Warn("plan confirmation not queued", "member_id", m.ID, "error", err)
	}
}

func (s *service) ChangePlan(ctx context.Context, businessID, id uuid.UUID, req ChangePlanRequest) (*Result, error) {
	p, err := s.plans.GetByID(ctx, businessID, req.PlanID)
	if err != nil {
		return nil, err
	}

	res, err := s.apply(ctx, businessID, id, "change_plan", func(m Member) (*Mutation, error) {
		return ChangePlan(m, s.now(), *p, req.PaymentMethod)
	})
	if err != nil {
		return nil, err
	}
	s.confirmPlan(ctx, res.Member.Member)
	return res, nil
}

func (s *service) Renew(ctx context.Context, businessID, id uuid.UUID, req RenewRequest) (*Result, error) {
	m, err := s.repo.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if m.PlanID == nil {
		return nil, ErrNoPlan
	}
	p, err := s.plans.GetByID(ctx, businessID, *m.PlanID)
	if err != nil {
		return nil, err
	}

	res, err := s.apply(ctx, businessID, id, "renew", func(m Member) (*Mutation, error) {
		return Renew(m, s.now(), *p, req.PaymentMethod)
	})
	if err != nil {
		return nil, err
	}
	s.confirmPlan(ctx, res.Member.Member)
	return res, nil
}

func (s *service) UseSession(ctx context.Context, businessID, id uuid.UUID) (*Result, error) {
	return s.apply(ctx, businessID, id, "use_session", func(m Member) (*Mutation, error) {
		return UseSession(m, s.now())
	})
}

func (s *service) AddSessions(ctx context.Context, businessID, id uuid.UUID, req AddSessionsRequest) (*Result, error) {
	return s.apply(ctx, businessID, id, "add_sessions", func(m Member) (*Mutation, error) {
		return AddSessions(m, s.now(), req.Count, req.Amount, req.PaymentMethod)
	})
}

func (s *service) Freeze(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error) {
	return s.apply(ctx, businessID, id, "freeze", func(m Member) (*Mutation, error) {
		return Freeze(m, s.now(), req.Reason)
	})
}

func (s *service) Unfreeze(ctx context.Context, businessID, id uuid.UUID) (*Result, error) {
	return s.apply(ctx, businessID, id, "unfreeze", func(m Member) (*Mutation, error) {
		return Unfreeze(m, s.now())
	})
}

func (s *service) Cancel(ctx context.Context, businessID, id uuid.UUID, req ReasonRequest) (*Result, error) {
	return s.apply(ctx, businessID, id, "cancel", func(m Member) (*Mutation, error) {
		return Cancel(m, s.now(), req.Reason)
	})
}

func (s *service) AddService(ctx context.Context, businessID, id uuid.UUID, req AddServiceRequest) (*Result, error) {
	return s.apply(ctx, businessID, id, "add_service", func(m Member) (*Mutation, error) {
		return AddService(m, s.now(), req.Name, req.Price, req.PaymentMethod)
	})
}

func (s *service) RepayDebt(ctx context.Context, businessID, id uuid.UUID, req RepayDebtRequest) (*Result, error) {
	return s.apply(ctx, businessID, id, "repay_debt", func(m Member) (*Mutation, error) {
		return RepayDebt(m, s.now(), req.Amount)
	})
}
