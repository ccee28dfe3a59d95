package staff

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"kestiv/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrStaffNotFound    = errors.New("staff not found")
	ErrBusinessNotFound = errors.New("business not found")
)

const staffColumns = `id, business_id, name, email, password_hash, role, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func insertStaff(ctx context.Context, q sqlx.QueryerContext, s *Staff) (*Staff, error) {
	var created Staff
	err := q.QueryRowxContext(ctx, `
		INSERT INTO staff (business_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+staffColumns,
		s.BusinessID, s.Name, normalizeEmail(s.Email), s.PasswordHash, s.Role,
	).StructScan(&created)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return &created, nil
}

// CreateBusinessWithOwner opens a new tenant and its first owner account.
func (r *repository) CreateBusinessWithOwner(ctx context.Context, b *Business, owner *Staff) (*Business, *Staff, error) {
	var business Business
	var created *Staff

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO businesses (name, business_type)
			VALUES ($1, $2)
			RETURNING id, name, business_type, created_at`,
			b.Name, b.BusinessType,
		).StructScan(&business)
		if err != nil {
			return err
		}

		owner.BusinessID = business.ID
		owner.Role = RoleOwner
		created, err = insertStaff(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &business, created, nil
}

func (r *repository) Create(ctx context.Context, s *Staff) (*Staff, error) {
	return insertStaff(ctx, r.db, s)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Staff, error) {
	var s Staff
	err := r.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE email = $1`, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	var s Staff
	err := r.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Staff, error) {
	out := []Staff{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+staffColumns+` FROM staff WHERE business_id = $1 ORDER BY created_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM staff WHERE email = $1)`, normalizeEmail(email))
}

func (r *repository) GetBusiness(ctx context.Context, id uuid.UUID) (*Business, error) {
	var b Business
	err := r.db.GetContext(ctx, &b, `SELECT id, name, business_type, created_at FROM businesses WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &b, nil
}
