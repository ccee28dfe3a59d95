package product

import (
	"context"
	"database/sql"
	"errors"

	"kestiv/internal/api"
	"kestiv/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateSKU      = errors.New("sku already in use")
)

const productColumns = `id, business_id, name, sku, price, stock, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	if p.SKU != nil {
		taken, err := db.Exists(ctx, r.db,
			`SELECT EXISTS(SELECT 1 FROM products WHERE business_id = $1 AND sku = $2)`, p.BusinessID, *p.SKU)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateSKU
		}
	}

	query := `
		INSERT INTO products (business_id, name, sku, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	var created Product
	err := r.db.QueryRowxContext(ctx, query, p.BusinessID, p.Name, p.SKU, p.Price, p.Stock, p.IsActive).StructScan(&created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p,
		`SELECT `+productColumns+` FROM products WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, businessID uuid.UUID, activeOnly bool, page api.Page) ([]Product, error) {
	page = page.Normalize()
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE business_id = $1 AND ($2 = FALSE OR is_active = TRUE)
		ORDER BY name ASC
		LIMIT $3 OFFSET $4
	`

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, businessID, activeOnly, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) Update(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET name = $1, sku = $2, price = $3, is_active = $4, updated_at = NOW()
		WHERE business_id = $5 AND id = $6
		RETURNING ` + productColumns

	var updated Product
	if err := r.db.GetContext(ctx, &updated, query, p.Name, p.SKU, p.Price, p.IsActive, p.BusinessID, p.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSKU
		}
		return nil, err
	}
	return &updated, nil
}

// AdjustStock applies delta in a single guarded statement so stock never
// drops below zero.
func (r *repository) AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta int) (*Product, error) {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE business_id = $2 AND id = $3 AND stock + $1 >= 0
		RETURNING ` + productColumns

	var p Product
	err := r.db.GetContext(ctx, &p, query, delta, businessID, id)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	found, err := db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM products WHERE business_id = $1 AND id = $2)`, businessID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProductNotFound
	}
	return nil, ErrInsufficientStock
}
