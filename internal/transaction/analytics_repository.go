package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (r *repository) Daily(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]DailyTotal, error) {
	query := `
		SELECT
		  to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')                 AS day,
		  COUNT(*)                                                            AS count,
		  COALESCE(SUM(amount) FILTER (WHERE payment_method = 'cash'), 0)     AS cash,
		  COALESCE(SUM(amount) FILTER (WHERE payment_method = 'debt'), 0)     AS debt
		FROM transactions
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`
	out := []DailyTotal{}
	if err := r.db.SelectContext(ctx, &out, query, businessID, from, to); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ByType(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]TypeTotal, error) {
	query := `
		SELECT type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY type
		ORDER BY type
	`
	out := []TypeTotal{}
	if err := r.db.SelectContext(ctx, &out, query, businessID, from, to); err != nil {
		return nil, err
	}
	return out, nil
}
