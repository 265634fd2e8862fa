// Package pricing composes the order totals consumed by the cart view, the
// payment step, and (frozen) the invoice. Compose is the single source of
// truth for the grand total; no caller derives its own figure.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
)

// TrialShippingFee is the flat fee charged once per order when at least one
// trial item is present, regardless of how many trial items there are or how
// far they ship. Flagged with product as possibly a placeholder business
// rule; preserved as-is from the source system.
var TrialShippingFee = decimal.NewFromInt(799)

// ShippingState summarises the shipping component of the totals.
type ShippingState string

const (
	// ShippingFinal means every purchase item's shipping contribution is
	// resolved (quoted, free, or degraded to zero after a failed quote).
	ShippingFinal ShippingState = "final"
	// ShippingAwaitingAddress means no destination is known; shipping-derived
	// figures must be presented as "calculate after adding an address"
	// rather than silently zero.
	ShippingAwaitingAddress ShippingState = "awaiting_address"
)

// Totals is the composed money breakdown for a cart.
type Totals struct {
	PurchaseSubtotal decimal.Decimal
	TrialShippingFee decimal.Decimal
	TotalShippingFee decimal.Decimal
	TaxBreakdown     []gst.BreakdownEntry
	TotalTax         decimal.Decimal
	// GrandTotal is always PurchaseSubtotal + TrialShippingFee +
	// TotalShippingFee + TotalTax, recomputed from those four figures and
	// never independently stored or adjusted.
	GrandTotal    decimal.Decimal
	ShippingState ShippingState
	ItemCount     int
}

// Compose derives the full totals for the given line items. No intermediate
// rounding is applied; figures stay exact decimals and only the display or
// persistence edge rounds. Quotes that failed or are missing contribute
// zero shipping; an item still waiting on a destination address flips the
// shipping state so callers label the totals as partial.
func Compose(items []cart.LineItem, table *gst.RateTable, quotes shipping.QuoteSet) Totals {
	subtotal := decimal.Zero
	count := 0
	hasTrial := false
	for _, li := range items {
		count += li.Quantity
		if li.Mode == cart.ModeTrial {
			hasTrial = true
			continue
		}
		subtotal = subtotal.Add(li.Subtotal())
	}

	trialFee := decimal.Zero
	if hasTrial {
		trialFee = TrialShippingFee
	}

	shippingFee := quotes.TotalStandardFee()

	tax := gst.ComputeTax(items, table)

	state := ShippingFinal
	if quotes.AwaitingAddress() {
		state = ShippingAwaitingAddress
	}

	return Totals{
		PurchaseSubtotal: subtotal,
		TrialShippingFee: trialFee,
		TotalShippingFee: shippingFee,
		TaxBreakdown:     tax.Breakdown,
		TotalTax:         tax.Total,
		GrandTotal:       subtotal.Add(trialFee).Add(shippingFee).Add(tax.Total),
		ShippingState:    state,
		ItemCount:        count,
	}
}
