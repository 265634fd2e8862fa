package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/gst"
)

const (
	listGSTRatesSQL = `SELECT category, rate FROM gst_rates ORDER BY category`

	upsertGSTRateSQL = `INSERT INTO gst_rates (category, rate)
		VALUES ($1, $2)
		ON CONFLICT (category) DO UPDATE SET rate = EXCLUDED.rate`
)

var _ gst.RateSource = (*GSTRateRepository)(nil)

// GSTRateRepository loads the category tax rates from PostgreSQL.
type GSTRateRepository struct {
	pool *pgxpool.Pool
}

// NewGSTRateRepository returns a GSTRateRepository that uses the given pool.
func NewGSTRateRepository(pool *pgxpool.Pool) *GSTRateRepository {
	return &GSTRateRepository{pool: pool}
}

// FetchRates returns every category rate, including the Default fallback
// row when present.
func (r *GSTRateRepository) FetchRates(ctx context.Context) ([]gst.RateEntry, error) {
	rows, err := r.pool.Query(ctx, listGSTRatesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing gst rates: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (gst.RateEntry, error) {
		var (
			e    gst.RateEntry
			rate decimal.Decimal
		)
		err := row.Scan(&e.Category, &rate)
		e.Rate = rate
		return e, err
	})
}

// Upsert inserts or replaces one category rate. Used by the seed tool.
func (r *GSTRateRepository) Upsert(ctx context.Context, e gst.RateEntry) error {
	if _, err := r.pool.Exec(ctx, upsertGSTRateSQL, e.Category, e.Rate); err != nil {
		return fmt.Errorf("upserting gst rate %q: %w", e.Category, err)
	}
	return nil
}
