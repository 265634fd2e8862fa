package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialkart/checkout-api/internal/domain/shipping"
)

const (
	countPincodesSQL = `SELECT count(*) FROM serviceable_pincodes`

	pincodeExistsSQL = `SELECT EXISTS (SELECT 1 FROM serviceable_pincodes WHERE pincode = $1)`

	insertPincodeSQL = `INSERT INTO serviceable_pincodes (pincode, courier)
		VALUES ($1, $2)
		ON CONFLICT (pincode) DO NOTHING`
)

var _ shipping.Serviceability = (*PincodeRepository)(nil)

// PincodeRepository answers destination serviceability from the courier
// coverage table loaded by the pincode-ingest tool. When the table is empty
// the repository degrades open: every pincode is serviceable, so running
// without a coverage data set never blocks checkout.
type PincodeRepository struct {
	pool *pgxpool.Pool
}

// NewPincodeRepository returns a PincodeRepository that uses the given pool.
func NewPincodeRepository(pool *pgxpool.Pool) *PincodeRepository {
	return &PincodeRepository{pool: pool}
}

// IsServiceable reports whether pincode is covered by at least one courier.
func (r *PincodeRepository) IsServiceable(ctx context.Context, pincode string) (bool, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countPincodesSQL).Scan(&total); err != nil {
		return false, fmt.Errorf("counting serviceable pincodes: %w", err)
	}
	if total == 0 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, pincodeExistsSQL, pincode).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking pincode %q: %w", pincode, err)
	}
	return exists, nil
}

// Insert records one courier-covered pincode. Used by the ingest tool.
func (r *PincodeRepository) Insert(ctx context.Context, pincode, courier string) error {
	if _, err := r.pool.Exec(ctx, insertPincodeSQL, pincode, courier); err != nil {
		return fmt.Errorf("inserting pincode %q: %w", pincode, err)
	}
	return nil
}
