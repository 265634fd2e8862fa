// Package gst provides the category tax rate table and the per-category tax
// breakdown applied to purchase line items.
package gst

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultCategory is the reserved rate-table key supplying the fallback rate
// for categories without an explicit entry.
const DefaultCategory = "Default"

// RateEntry maps a product category to a tax rate fraction (0.18 for 18%).
type RateEntry struct {
	Category string
	Rate     decimal.Decimal
}

// RateSource loads all category rates, including the Default fallback row.
// Called once per process; the result is cached in a RateTable.
type RateSource interface {
	FetchRates(ctx context.Context) ([]RateEntry, error)
}

// RateTable is immutable reference data resolving a category to its tax
// rate. A nil or empty table resolves every category to zero, so a failed
// rate load degrades to untaxed checkout instead of blocking it.
type RateTable struct {
	rates map[string]decimal.Decimal
}

// NewRateTable builds a table from the given entries. Later duplicate
// categories win.
func NewRateTable(entries []RateEntry) *RateTable {
	rates := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		rates[e.Category] = e.Rate
	}
	return &RateTable{rates: rates}
}

// EmptyRateTable returns a table that resolves every category to zero.
func EmptyRateTable() *RateTable {
	return &RateTable{}
}

// RateFor returns the rate for category, falling back to the Default entry
// and finally to zero. It never fails.
func (t *RateTable) RateFor(category string) decimal.Decimal {
	if t == nil || t.rates == nil {
		return decimal.Zero
	}
	if r, ok := t.rates[category]; ok {
		return r
	}
	if r, ok := t.rates[DefaultCategory]; ok {
		return r
	}
	return decimal.Zero
}

// Empty reports whether the table has no entries, i.e. rates never loaded.
func (t *RateTable) Empty() bool {
	return t == nil || len(t.rates) == 0
}
