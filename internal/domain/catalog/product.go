package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase or home trial.
type Product struct {
	ID          string
	Name        string
	RetailPrice decimal.Decimal
	// MRP is the maximum retail price printed on the product. The invoice
	// derives the per-line discount from the gap between MRP and the price
	// actually charged.
	MRP      decimal.Decimal
	Category string
	ImageURL string
	// PickupPincode is the seller's registered pickup postal code. Empty when
	// the seller has not registered a pickup address, in which case the item
	// ships free and no quote is requested for it.
	PickupPincode string
	TrialEligible bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
