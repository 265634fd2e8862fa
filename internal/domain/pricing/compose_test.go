package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id, category, price string, qty int, mode cart.Mode) cart.LineItem {
	return cart.LineItem{
		ProductID:     id,
		Category:      category,
		UnitPrice:     dec(price),
		Quantity:      qty,
		Mode:          mode,
		PickupPincode: "560001",
	}
}

func quoted(fee int64, ids ...string) shipping.QuoteSet {
	set := make(shipping.QuoteSet, len(ids))
	for _, id := range ids {
		q := shipping.Quote{Fee: decimal.NewFromInt(fee), ExpressFee: decimal.NewFromInt(fee * 2)}
		set[id] = shipping.ItemQuote{ProductID: id, Status: shipping.StatusQuoted, Quote: &q}
	}
	return set
}

func testTable() *gst.RateTable {
	return gst.NewRateTable([]gst.RateEntry{
		{Category: "Electronics", Rate: dec("0.18")},
		{Category: "Apparel", Rate: dec("0.12")},
		{Category: gst.DefaultCategory, Rate: dec("0.18")},
	})
}

func TestCompose_PurchaseOnly(t *testing.T) {
	items := []cart.LineItem{
		line("p1", "Electronics", "1000", 2, cart.ModePurchase),
		line("p2", "Apparel", "500", 1, cart.ModePurchase),
	}
	quotes := quoted(40, "p1", "p2")

	totals := Compose(items, testTable(), quotes)

	assert.True(t, totals.PurchaseSubtotal.Equal(dec("2500")), "got %s", totals.PurchaseSubtotal)
	assert.True(t, totals.TrialShippingFee.IsZero())
	assert.True(t, totals.TotalShippingFee.Equal(dec("80")))
	// 18% of 2000 + 12% of 500.
	assert.True(t, totals.TotalTax.Equal(dec("420")), "got %s", totals.TotalTax)
	assert.True(t, totals.GrandTotal.Equal(dec("3000")), "got %s", totals.GrandTotal)
	assert.Equal(t, ShippingFinal, totals.ShippingState)
	assert.Equal(t, 3, totals.ItemCount)
}

func TestCompose_TrialOnly(t *testing.T) {
	items := []cart.LineItem{line("p1", "Apparel", "3499", 1, cart.ModeTrial)}

	totals := Compose(items, testTable(), shipping.QuoteSet{})

	assert.True(t, totals.PurchaseSubtotal.IsZero())
	assert.True(t, totals.TrialShippingFee.Equal(dec("799")))
	assert.True(t, totals.TotalShippingFee.IsZero())
	assert.True(t, totals.TotalTax.IsZero())
	assert.True(t, totals.GrandTotal.Equal(dec("799")))
}

func TestCompose_TrialFeeFlatRegardlessOfCount(t *testing.T) {
	items := []cart.LineItem{
		line("p1", "Apparel", "3499", 1, cart.ModeTrial),
		line("p2", "Apparel", "1899", 1, cart.ModeTrial),
		line("p3", "Footwear", "999", 1, cart.ModeTrial),
	}

	totals := Compose(items, testTable(), shipping.QuoteSet{})

	assert.True(t, totals.TrialShippingFee.Equal(dec("799")))
	assert.True(t, totals.GrandTotal.Equal(dec("799")))
	assert.Equal(t, 3, totals.ItemCount)
}

func TestCompose_MixedCart(t *testing.T) {
	items := []cart.LineItem{
		line("p1", "Electronics", "1000", 1, cart.ModePurchase),
		line("p2", "Apparel", "3499", 1, cart.ModeTrial),
	}
	quotes := quoted(60, "p1")

	totals := Compose(items, testTable(), quotes)

	assert.True(t, totals.PurchaseSubtotal.Equal(dec("1000")))
	assert.True(t, totals.TrialShippingFee.Equal(dec("799")))
	assert.True(t, totals.TotalShippingFee.Equal(dec("60")))
	assert.True(t, totals.TotalTax.Equal(dec("180")))
	assert.True(t, totals.GrandTotal.Equal(dec("2039")), "got %s", totals.GrandTotal)
}

func TestCompose_GrandTotalIdentity(t *testing.T) {
	items := []cart.LineItem{
		line("p1", "Electronics", "1234.56", 2, cart.ModePurchase),
		line("p2", "Handicrafts", "749", 3, cart.ModePurchase),
		line("p3", "Apparel", "3499", 1, cart.ModeTrial),
	}
	quotes := quoted(71, "p1", "p2")

	totals := Compose(items, testTable(), quotes)

	want := totals.PurchaseSubtotal.
		Add(totals.TrialShippingFee).
		Add(totals.TotalShippingFee).
		Add(totals.TotalTax)
	assert.True(t, totals.GrandTotal.Equal(want),
		"grand total %s != component sum %s", totals.GrandTotal, want)
}

func TestCompose_AwaitingAddress(t *testing.T) {
	items := []cart.LineItem{line("p1", "Electronics", "1000", 1, cart.ModePurchase)}
	quotes := shipping.QuoteSet{
		"p1": {ProductID: "p1", Status: shipping.StatusAwaitingAddress},
	}

	totals := Compose(items, testTable(), quotes)

	assert.Equal(t, ShippingAwaitingAddress, totals.ShippingState)
	assert.True(t, totals.TotalShippingFee.IsZero())
	// Subtotal and tax are still final figures.
	assert.True(t, totals.PurchaseSubtotal.Equal(dec("1000")))
	assert.True(t, totals.TotalTax.Equal(dec("180")))
}

func TestCompose_UnavailableQuoteContributesZero(t *testing.T) {
	items := []cart.LineItem{
		line("p1", "Electronics", "1000", 1, cart.ModePurchase),
		line("p2", "Apparel", "500", 1, cart.ModePurchase),
	}
	quotes := quoted(40, "p1")
	quotes["p2"] = shipping.ItemQuote{ProductID: "p2", Status: shipping.StatusUnavailable}

	totals := Compose(items, testTable(), quotes)

	assert.True(t, totals.TotalShippingFee.Equal(dec("40")))
	assert.Equal(t, ShippingFinal, totals.ShippingState)
}

func TestCompose_EmptyCart(t *testing.T) {
	totals := Compose(nil, testTable(), shipping.QuoteSet{})

	require.Equal(t, 0, totals.ItemCount)
	assert.True(t, totals.GrandTotal.IsZero())
	assert.Equal(t, ShippingFinal, totals.ShippingState)
}

func TestCompose_NoIntermediateRounding(t *testing.T) {
	// 0.18 * 333.33 = 59.9994; the exact figure must flow into the grand
	// total untouched.
	items := []cart.LineItem{line("p1", "Electronics", "333.33", 1, cart.ModePurchase)}
	quotes := quoted(40, "p1")

	totals := Compose(items, testTable(), quotes)

	assert.True(t, totals.TotalTax.Equal(dec("59.9994")), "got %s", totals.TotalTax)
	assert.True(t, totals.GrandTotal.Equal(dec("433.3294")), "got %s", totals.GrandTotal)
}
