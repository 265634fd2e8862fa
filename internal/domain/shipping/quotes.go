package shipping

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/trialkart/checkout-api/internal/domain/cart"
)

// ItemQuoteStatus describes the shipping state of one cart line item.
type ItemQuoteStatus string

const (
	// StatusQuoted means a quote resolved and its standard fee counts toward
	// the order's shipping total.
	StatusQuoted ItemQuoteStatus = "quoted"
	// StatusFreeNoOrigin means the seller has no pickup pincode; the item
	// ships free and contributes zero without blocking checkout.
	StatusFreeNoOrigin ItemQuoteStatus = "free_no_origin"
	// StatusUnavailable means the quote for this item failed (bad pincode or
	// estimator error). The item is shown as "cannot calculate"; quotes
	// already obtained for other items stay valid.
	StatusUnavailable ItemQuoteStatus = "unavailable"
	// StatusAwaitingAddress means no destination pincode is known yet, so
	// shipping for this item cannot be quoted at all.
	StatusAwaitingAddress ItemQuoteStatus = "awaiting_address"
)

// ItemQuote pairs a line item with its resolved quote state.
type ItemQuote struct {
	ProductID string
	Status    ItemQuoteStatus
	// Quote is set only when Status is StatusQuoted.
	Quote *Quote
}

// QuoteSet holds the per-item quote outcomes for one cart render, keyed by
// product ID. The set is complete: every purchase item passed to QuoteItems
// has an entry, so totals computed from it are final for that render.
type QuoteSet map[string]ItemQuote

// TotalStandardFee sums the standard fees of resolved quotes. Items without
// a resolved quote contribute zero.
func (qs QuoteSet) TotalStandardFee() decimal.Decimal {
	total := decimal.Zero
	for _, iq := range qs {
		if iq.Status == StatusQuoted && iq.Quote != nil {
			total = total.Add(iq.Quote.Fee)
		}
	}
	return total
}

// AwaitingAddress reports whether any item is blocked on a missing
// destination pincode.
func (qs QuoteSet) AwaitingAddress() bool {
	for _, iq := range qs {
		if iq.Status == StatusAwaitingAddress {
			return true
		}
	}
	return false
}

// QuoteItems issues quote requests for every purchase item concurrently and
// waits for all of them before returning, so the caller never sums a partial
// set. A failed estimate degrades that one item to StatusUnavailable without
// touching the others. Trial items are skipped: their shipping is covered by
// the flat trial fee.
func QuoteItems(ctx context.Context, est Estimator, items []cart.LineItem, destination string) QuoteSet {
	type slot struct {
		productID string
		quote     ItemQuote
	}

	toQuote := make([]cart.LineItem, 0, len(items))
	set := make(QuoteSet, len(items))
	for _, li := range items {
		if li.Mode != cart.ModePurchase {
			continue
		}
		switch {
		case li.PickupPincode == "":
			set[li.ProductID] = ItemQuote{ProductID: li.ProductID, Status: StatusFreeNoOrigin}
		case destination == "":
			set[li.ProductID] = ItemQuote{ProductID: li.ProductID, Status: StatusAwaitingAddress}
		default:
			toQuote = append(toQuote, li)
		}
	}

	if len(toQuote) == 0 {
		return set
	}

	slots := make([]slot, len(toQuote))
	g, ctx := errgroup.WithContext(ctx)
	for i, li := range toQuote {
		g.Go(func() error {
			q, err := est.Estimate(ctx, li.PickupPincode, destination)
			if err != nil {
				slots[i] = slot{productID: li.ProductID, quote: ItemQuote{
					ProductID: li.ProductID,
					Status:    StatusUnavailable,
				}}
				return nil
			}
			slots[i] = slot{productID: li.ProductID, quote: ItemQuote{
				ProductID: li.ProductID,
				Status:    StatusQuoted,
				Quote:     &q,
			}}
			return nil
		})
	}
	// Workers never return errors; Wait is purely a completion barrier.
	_ = g.Wait()

	for _, s := range slots {
		set[s.productID] = s.quote
	}
	return set
}
