// Package cart owns the in-memory line items for a single shopping session
// and exposes the derived views the pricing composer reads.
package cart

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/catalog"
)

// Mode distinguishes an outright purchase from a home trial.
type Mode string

const (
	// ModePurchase is a regular purchase billed at the retail price.
	ModePurchase Mode = "purchase"
	// ModeTrial is a home-trial borrow billed only through the flat trial
	// shipping fee. Trial quantity is pinned at 1.
	ModeTrial Mode = "trial"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModePurchase || m == ModeTrial
}

// ErrAlreadyInCart is returned when a product already present in the cart is
// added again in a combination that cannot be merged. Only a purchase added
// on top of an existing purchase merges (quantity +1); every other pairing
// is rejected so a product never appears twice across modes.
var ErrAlreadyInCart = errors.New("product already in cart")

// LineItem is one product entry in the cart.
type LineItem struct {
	ProductID     string
	Name          string
	UnitPrice     decimal.Decimal
	MRP           decimal.Decimal
	Category      string
	Quantity      int
	Mode          Mode
	PickupPincode string
}

// Subtotal returns UnitPrice * Quantity for a purchase item and zero for a
// trial item.
func (li LineItem) Subtotal() decimal.Decimal {
	if li.Mode != ModePurchase {
		return decimal.Zero
	}
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is the authoritative holder of a session's line items. All mutations
// are atomic with respect to the item list; derived views are recomputed on
// every read and never cached across mutations.
type Cart struct {
	mu    sync.Mutex
	items []LineItem
}

// New returns an empty Cart.
func New() *Cart {
	return &Cart{}
}

// Add places a product into the cart in the given mode. Adding a product
// that is already present increments its quantity only when both the
// existing entry and the request are purchases; any other combination
// returns ErrAlreadyInCart and leaves the cart unchanged.
func (c *Cart) Add(p catalog.Product, mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, li := range c.items {
		if li.ProductID != p.ID {
			continue
		}
		if li.Mode == ModePurchase && mode == ModePurchase {
			c.items[i].Quantity++
			return nil
		}
		return ErrAlreadyInCart
	}

	c.items = append(c.items, LineItem{
		ProductID:     p.ID,
		Name:          p.Name,
		UnitPrice:     p.RetailPrice,
		MRP:           p.MRP,
		Category:      p.Category,
		Quantity:      1,
		Mode:          mode,
		PickupPincode: p.PickupPincode,
	})
	return nil
}

// Remove deletes the entry for productID unconditionally. Removing an absent
// product is a no-op.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, li := range c.items {
		if li.ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// SetQuantity sets the quantity of a purchase entry. A quantity of zero or
// less removes the entry. For a trial entry the call has no effect: trial
// quantity stays pinned at 1.
func (c *Cart) SetQuantity(productID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, li := range c.items {
		if li.ProductID != productID {
			continue
		}
		if li.Mode == ModeTrial {
			return
		}
		if n <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Quantity = n
		return
	}
}

// Clear empties the cart. Called only after an order has been persisted.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a snapshot copy of the current line items.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the total quantity across all line items.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, li := range c.items {
		count += li.Quantity
	}
	return count
}

// PurchaseSubtotal returns the sum of UnitPrice*Quantity over purchase
// items. Trial items contribute nothing.
func (c *Cart) PurchaseSubtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, li := range c.items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// HasTrialItems reports whether at least one trial item is present, which is
// what makes the flat trial shipping fee applicable.
func (c *Cart) HasTrialItems() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, li := range c.items {
		if li.Mode == ModeTrial {
			return true
		}
	}
	return false
}

// Contains reports whether the product is present in the cart in any mode.
func (c *Cart) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, li := range c.items {
		if li.ProductID == productID {
			return true
		}
	}
	return false
}
