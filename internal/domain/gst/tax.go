package gst

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/cart"
)

// BreakdownEntry is the tax charged for one category of purchase items.
type BreakdownEntry struct {
	Category string
	// RatePercent is the rate scaled for display: 18 for an 0.18 fraction.
	RatePercent decimal.Decimal
	Amount      decimal.Decimal
}

// TaxDetails is the category-grouped tax for a set of line items.
type TaxDetails struct {
	Breakdown []BreakdownEntry
	Total     decimal.Decimal
}

// ComputeTax groups purchase items by category and applies the table rate to
// each group's subtotal. Categories that resolve to a zero rate are left out
// of the breakdown. Trial items are never taxed. An empty table yields an
// empty breakdown and zero total; tax must never block checkout.
func ComputeTax(items []cart.LineItem, table *RateTable) TaxDetails {
	if table.Empty() {
		return TaxDetails{Total: decimal.Zero}
	}

	amounts := make(map[string]decimal.Decimal)
	rates := make(map[string]decimal.Decimal)
	for _, li := range items {
		if li.Mode != cart.ModePurchase {
			continue
		}
		rate := table.RateFor(li.Category)
		if !rate.IsPositive() {
			continue
		}
		amounts[li.Category] = amounts[li.Category].Add(li.Subtotal().Mul(rate))
		rates[li.Category] = rate
	}

	categories := make([]string, 0, len(amounts))
	for cat := range amounts {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	details := TaxDetails{Total: decimal.Zero}
	for _, cat := range categories {
		details.Breakdown = append(details.Breakdown, BreakdownEntry{
			Category:    cat,
			RatePercent: rates[cat].Mul(decimal.NewFromInt(100)),
			Amount:      amounts[cat],
		})
		details.Total = details.Total.Add(amounts[cat])
	}
	return details
}
