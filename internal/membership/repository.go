package membership

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/db"
	"kestiv/internal/plan"
	"kestiv/internal/transaction"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const memberColumns = `id, business_id, name, phone, email, plan_id, plan_name, plan_type, plan_start_at, expires_at,
	sessions_total, sessions_used, is_frozen, frozen_at, debt, notes, created_at, updated_at`

const historyColumns = `id, business_id, member_id, type, amount, payment_method, sessions_before, sessions_after,
	sessions_added, old_plan_name, new_plan_name, notes, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// normalize fills plan_type on legacy rows that only carry counters.
func normalize(m *Member) {
	if m.PlanID != nil && (m.PlanType == nil || !m.PlanType.Valid()) {
		t := plan.InferType(m.SessionsTotal)
		m.PlanType = &t
	}
}

func (r *repository) Create(ctx context.Context, m *Member) (*Member, error) {
	query := `
		INSERT INTO members (business_id, name, phone, email, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + memberColumns

	var created Member
	if err := r.db.GetContext(ctx, &created, query, m.BusinessID, m.Name, m.Phone, m.Email, m.Notes); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE business_id = $1 AND id = $2`

	var m Member
	if err := r.db.GetContext(ctx, &m, query, businessID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	normalize(&m)
	return &m, nil
}

const memberSearch = `
		SELECT ` + memberColumns + `
		FROM members
		WHERE business_id = $1
		  AND ($2::text = '' OR name ILIKE '%' || $2::text || '%' OR phone LIKE '%' || $2::text || '%')
		ORDER BY name ASC, id ASC`

func (r *repository) List(ctx context.Context, businessID uuid.UUID, search string, page api.Page) ([]Member, error) {
	page = page.Normalize()
	return r.selectMembers(ctx, memberSearch+` LIMIT $3 OFFSET $4`,
		businessID, strings.TrimSpace(search), page.Limit, page.Offset)
}

// Search returns every member matching search, unpaged.
func (r *repository) Search(ctx context.Context, businessID uuid.UUID, search string) ([]Member, error) {
	return r.selectMembers(ctx, memberSearch, businessID, strings.TrimSpace(search))
}

func (r *repository) selectMembers(ctx context.Context, query string, args ...interface{}) ([]Member, error) {
	members := []Member{}
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, err
	}
	for i := range members {
		normalize(&members[i])
	}
	return members, nil
}

func (r *repository) UpdateContact(ctx context.Context, m *Member) (*Member, error) {
	query := `
		UPDATE members
		SET name = $1, phone = $2, email = $3, notes = $4, updated_at = NOW()
		WHERE business_id = $5 AND id = $6
		RETURNING ` + memberColumns

	var updated Member
	err := r.db.GetContext(ctx, &updated, query, m.Name, m.Phone, m.Email, m.Notes, m.BusinessID, m.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	normalize(&updated)
	return &updated, nil
}

func (r *repository) History(ctx context.Context, businessID, memberID uuid.UUID, page api.Page) ([]HistoryEntry, error) {
	page = page.Normalize()
	query := `
		SELECT ` + historyColumns + `
		FROM subscription_history
		WHERE business_id = $1 AND member_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	entries := []HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, businessID, memberID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return entries, nil
}

// Mutate locks the member row, lets fn compute the next state and persists
// the member, its history entry and any transaction together.
func (r *repository) Mutate(ctx context.Context, businessID, memberID uuid.UUID, fn MutateFunc) (*Mutation, error) {
	var result *Mutation

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current Member
		err := tx.QueryRowxContext(ctx,
			`SELECT `+memberColumns+` FROM members WHERE business_id = $1 AND id = $2 FOR UPDATE`,
			businessID, memberID,
		).StructScan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMemberNotFound
			}
			return err
		}
		normalize(&current)

		mut, err := fn(current)
		if err != nil {
			return err
		}

		m := &mut.Member
		err = tx.QueryRowxContext(ctx, `
			UPDATE members
			SET plan_id = $1, plan_name = $2, plan_type = $3, plan_start_at = $4, expires_at = $5,
			    sessions_total = $6, sessions_used = $7, is_frozen = $8, frozen_at = $9, debt = $10,
			    updated_at = NOW()
			WHERE business_id = $11 AND id = $12
			RETURNING updated_at`,
			m.PlanID, m.PlanName, m.PlanType, m.PlanStartAt, m.ExpiresAt,
			m.SessionsTotal, m.SessionsUsed, m.IsFrozen, m.FrozenAt, m.Debt,
			businessID, memberID,
		).Scan(&m.UpdatedAt)
		if err != nil {
			return err
		}

		if e := mut.Entry; e != nil {
			err = tx.QueryRowxContext(ctx, `
				INSERT INTO subscription_history (business_id, member_id, type, amount, payment_method,
					sessions_before, sessions_after, sessions_added, old_plan_name, new_plan_name, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				RETURNING id, created_at`,
				businessID, memberID, e.Type, e.Amount, e.PaymentMethod,
				e.SessionsBefore, e.SessionsAfter, e.SessionsAdded, e.OldPlanName, e.NewPlanName, e.Notes,
			).Scan(&e.ID, &e.CreatedAt)
			if err != nil {
				return err
			}
		}

		if mut.Transaction != nil {
			if err := transaction.Insert(ctx, tx, mut.Transaction); err != nil {
				return err
			}
		}

		result = mut
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListExpiring returns reminder candidates across all businesses: reachable
// members on a running subscription that ends in (from, to] and have not yet
// been reminded about that expiry.
func (r *repository) ListExpiring(ctx context.Context, from, to time.Time) ([]ExpiringMember, error) {
	query := `
		SELECT m.id, m.business_id, m.name, m.phone, m.email, m.plan_id, m.plan_name, m.plan_type,
		       m.plan_start_at, m.expires_at, m.sessions_total, m.sessions_used, m.is_frozen, m.frozen_at,
		       m.debt, m.notes, m.created_at, m.updated_at, b.name AS business_name
		FROM members m
		JOIN businesses b ON b.id = m.business_id
		WHERE m.plan_id IS NOT NULL
		  AND m.is_frozen = FALSE
		  AND m.email IS NOT NULL AND m.email <> ''
		  AND (m.plan_type = 'subscription' OR (m.plan_type IS NULL AND m.sessions_total <= 0))
		  AND m.expires_at > $1 AND m.expires_at <= $2
		  AND m.reminded_for IS DISTINCT FROM m.expires_at
		ORDER BY m.expires_at ASC
	`

	out := []ExpiringMember{}
	if err := r.db.SelectContext(ctx, &out, query, from, to); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkReminded records that the reminder for expiresAt went out. A member
// whose expiry moved since the sweep read it is left alone.
func (r *repository) MarkReminded(ctx context.Context, businessID, memberID uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE members
		SET reminded_for = $3
		WHERE business_id = $1 AND id = $2 AND expires_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, businessID, memberID, expiresAt)
	return err
}
