package transaction

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"kestiv/internal/api"
	"kestiv/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not for sale")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberRequired    = errors.New("debt sales require a member")
)

const transactionColumns = `id, business_id, member_id, type, amount, payment_method, items, notes, created_at`

// Insert writes t using q, which may be a *sqlx.DB or an open *sqlx.Tx, and
// fills in the generated id and timestamp.
func Insert(ctx context.Context, q sqlx.QueryerContext, t *Transaction) error {
	if t.Items == nil {
		t.Items = datatypes.JSONSlice[LineItem]{}
	}

	return q.QueryRowxContext(ctx, `
		INSERT INTO transactions (business_id, member_id, type, amount, payment_method, items, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.BusinessID, t.MemberID, t.Type, t.Amount, t.PaymentMethod, t.Items, t.Notes,
	).Scan(&t.ID, &t.CreatedAt)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Transaction) (*Transaction, error) {
	if err := Insert(ctx, r.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, businessID uuid.UUID, filter ListFilter, page api.Page) ([]Transaction, error) {
	page = page.Normalize()

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE business_id = $1
		  AND ($2::text = '' OR type = $2::text)
		  AND ($3::uuid IS NULL OR member_id = $3::uuid)
		  AND ($4::timestamptz IS NULL OR created_at >= $4::timestamptz)
		  AND ($5::timestamptz IS NULL OR created_at < $5::timestamptz)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, query,
		businessID, string(filter.Type), filter.MemberID, filter.From, filter.To, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) Summary(ctx context.Context, businessID uuid.UUID, from, to time.Time) ([]MethodTotal, error) {
	query := `
		SELECT payment_method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY payment_method
		ORDER BY payment_method
	`

	totals := []MethodTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, businessID, from, to); err != nil {
		return nil, err
	}
	return totals, nil
}

type saleProduct struct {
	ID       uuid.UUID       `db:"id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Stock    int             `db:"stock"`
	IsActive bool            `db:"is_active"`
}

// mergeItems folds duplicate products together and orders them by id so
// concurrent sales lock rows in the same order.
func mergeItems(items []SaleItemRequest) []SaleItemRequest {
	qty := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}

	merged := make([]SaleItemRequest, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, SaleItemRequest{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].ProductID[:], merged[j].ProductID[:]) < 0
	})
	return merged
}

// CreateSale decrements stock for every line, charges the member's debt when
// paid on credit and records the sale, all in one database transaction.
func (r *repository) CreateSale(ctx context.Context, businessID uuid.UUID, req CreateSaleRequest) (*Transaction, error) {
	if req.PaymentMethod == MethodDebt && req.MemberID == nil {
		return nil, ErrMemberRequired
	}

	sale := &Transaction{
		BusinessID:    businessID,
		MemberID:      req.MemberID,
		Type:          TypeSale,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Amount:        decimal.Zero,
		Items:         datatypes.JSONSlice[LineItem]{},
	}

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, it := range mergeItems(req.Items) {
			var p saleProduct
			err := tx.QueryRowxContext(ctx, `
				SELECT id, name, price, stock, is_active
				FROM products
				WHERE business_id = $1 AND id = $2
				FOR UPDATE`,
				businessID, it.ProductID,
			).StructScan(&p)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrProductNotFound
				}
				return err
			}
			if !p.IsActive {
				return ErrProductInactive
			}
			if p.Stock < it.Quantity {
				return ErrInsufficientStock
			}

			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2`,
				it.Quantity, p.ID,
			); err != nil {
				return err
			}

			line := LineItem{ProductID: p.ID, Name: p.Name, Quantity: it.Quantity, UnitPrice: p.Price}
			sale.Items = append(sale.Items, line)
			sale.Amount = sale.Amount.Add(line.Total())
		}

		// A cash sale adds zero but still proves the member belongs to the business.
		if req.MemberID != nil {
			res, err := tx.ExecContext(ctx, `
				UPDATE members
				SET debt = debt + $1, updated_at = NOW()
				WHERE business_id = $2 AND id = $3`,
				debtDelta(req.PaymentMethod, sale.Amount), businessID, *req.MemberID,
			)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return ErrMemberNotFound
			}
		}

		return Insert(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func debtDelta(method PaymentMethod, amount decimal.Decimal) decimal.Decimal {
	if method == MethodDebt {
		return amount
	}
	return decimal.Zero
}
