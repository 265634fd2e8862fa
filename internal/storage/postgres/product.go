package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialkart/checkout-api/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, retail_price, mrp, category, image_url, pickup_pincode, trial_eligible
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, retail_price, mrp, category, image_url, pickup_pincode, trial_eligible
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, retail_price, mrp, category, image_url, pickup_pincode, trial_eligible
		FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, name, retail_price, mrp, category, image_url, pickup_pincode, trial_eligible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			retail_price = EXCLUDED.retail_price,
			mrp = EXCLUDED.mrp,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			pickup_pincode = EXCLUDED.pickup_pincode,
			trial_eligible = EXCLUDED.trial_eligible`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts or replaces a catalog row. Used by the seed tool.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.RetailPrice, p.MRP, p.Category, p.ImageURL, p.PickupPincode, p.TrialEligible,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.RetailPrice, &p.MRP, &p.Category,
		&p.ImageURL, &p.PickupPincode, &p.TrialEligible,
	)
	return p, err
}
