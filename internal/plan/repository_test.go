package plan

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var planRowColumns = []string{"id", "business_id", "name", "plan_type", "duration_days", "sessions", "price", "is_active", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	businessID := uuid.New()
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO subscription_plans.*`).
		WithArgs(businessID, "10 visits", TypePackage, 60.0, 10, decimal.NewFromInt(150), true).
		WillReturnRows(sqlmock.NewRows(planRowColumns).
			AddRow(id.String(), businessID.String(), "10 visits", "package", 60.0, 10, "150", true, now, now))

	p, err := repo.Create(context.Background(), &Plan{
		BusinessID:   businessID,
		Name:         "10 visits",
		PlanType:     TypePackage,
		DurationDays: 60,
		Sessions:     10,
		Price:        decimal.NewFromInt(150),
		IsActive:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, TypePackage, p.PlanType)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(150)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	businessID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM subscription_plans WHERE business_id = \$1 AND id = \$2`).
		WithArgs(businessID, id).
		WillReturnRows(sqlmock.NewRows(planRowColumns))

	p, err := repo.GetByID(context.Background(), businessID, id)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	businessID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM subscription_plans.*`).
		WithArgs(businessID, true).
		WillReturnRows(sqlmock.NewRows(planRowColumns).
			AddRow(uuid.NewString(), businessID.String(), "Drop-in", "single", 0.0, 1, "15", true, now, now).
			AddRow(uuid.NewString(), businessID.String(), "Monthly", "subscription", 30.0, 0, "90", true, now, now))

	plans, err := repo.List(context.Background(), businessID, true)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Equal(t, TypeSingle, plans[0].PlanType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE subscription_plans.*`).
		WillReturnRows(sqlmock.NewRows(planRowColumns))

	_, err := repo.Update(context.Background(), &Plan{ID: uuid.New(), BusinessID: uuid.New(), Name: "x"})
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
