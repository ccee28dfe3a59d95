package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staffRowColumns = []string{"id", "business_id", "name", "email", "password_hash", "role", "created_at"}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func staffRow(id, businessID uuid.UUID, role string) *sqlmock.Rows {
	return sqlmock.NewRows(staffRowColumns).
		AddRow(id.String(), businessID.String(), "Dana", "dana@example.com", "hash", role, time.Now())
}

func TestRepository_CreateBusinessWithOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	businessID, staffID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO businesses.*`).
		WithArgs("Iron Temple", "gym").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "business_type", "created_at"}).
			AddRow(businessID.String(), "Iron Temple", "gym", time.Now()))
	mock.ExpectQuery(`INSERT INTO staff.*`).
		WithArgs(businessID, "Dana", "dana@example.com", "hash", RoleOwner).
		WillReturnRows(staffRow(staffID, businessID, RoleOwner))
	mock.ExpectCommit()

	b, s, err := repo.CreateBusinessWithOwner(context.Background(),
		&Business{Name: "Iron Temple", BusinessType: "gym"},
		&Staff{Name: "Dana", Email: " Dana@Example.com ", PasswordHash: "hash"},
	)
	require.NoError(t, err)
	assert.Equal(t, businessID, b.ID)
	assert.Equal(t, staffID, s.ID)
	assert.Equal(t, RoleOwner, s.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateBusinessWithOwner_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO businesses.*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "business_type", "created_at"}).
			AddRow(uuid.NewString(), "Iron Temple", "gym", time.Now()))
	mock.ExpectQuery(`INSERT INTO staff.*`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, _, err := repo.CreateBusinessWithOwner(context.Background(),
		&Business{Name: "Iron Temple", BusinessType: "gym"},
		&Staff{Name: "Dana", Email: "dana@example.com", PasswordHash: "hash"},
	)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, businessID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .* FROM staff WHERE email = \$1`).
		WithArgs("dana@example.com").
		WillReturnRows(staffRow(id, businessID, RoleCashier))

	s, err := repo.FindByEmail(context.Background(), "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, businessID, s.BusinessID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM staff WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(staffRowColumns))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestRepository_EmailExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS.*FROM staff.*`).
		WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "dana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_GetBusiness_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM businesses.*`).WillReturnError(errors.New("connection reset"))

	_, err := repo.GetBusiness(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBusinessNotFound)
}
