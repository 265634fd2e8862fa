package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialkart/checkout-api/internal/domain/auth"
	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/catalog"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/domain/order"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/pkg/retry"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID map[string]catalog.Product
}

func (m *mockCatalog) List(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockServiceability struct {
	serviceable bool
}

func (m *mockServiceability) IsServiceable(_ context.Context, _ string) (bool, error) {
	return m.serviceable, nil
}

type mockOrderRepo struct {
	byID      map[string]*order.Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.byID == nil {
		m.byID = make(map[string]*order.Order)
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

// --- Test fixture ---

type fixture struct {
	handler   *Handler
	carts     *cart.Store
	products  *mockCatalog
	orderRepo *mockOrderRepo
	server    http.Handler
}

func testProduct(id, category string, price, mrp int64, trial bool) catalog.Product {
	return catalog.Product{
		ID:            id,
		Name:          "Product " + id,
		RetailPrice:   decimal.NewFromInt(price),
		MRP:           decimal.NewFromInt(mrp),
		Category:      category,
		ImageURL:      "/images/" + id + ".jpg",
		PickupPincode: "560001",
		TrialEligible: trial,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockCatalog{byID: map[string]catalog.Product{
		"p1": testProduct("p1", "Electronics", 1000, 2500, false),
		"p2": testProduct("p2", "Apparel", 3499, 7999, true),
	}}
	rates := gst.NewRateTable([]gst.RateEntry{
		{Category: "Electronics", Rate: decimal.RequireFromString("0.18")},
		{Category: "Apparel", Rate: decimal.RequireFromString("0.12")},
		{Category: gst.DefaultCategory, Rate: decimal.RequireFromString("0.18")},
	})
	orderRepo := &mockOrderRepo{}
	carts := cart.NewStore()
	policy := retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	h := NewHandler(
		Config{ImageBaseURL: "https://cdn.test"},
		products,
		carts,
		rates,
		shipping.NewTariffEstimator(),
		&mockServiceability{serviceable: true},
		order.NewService(orderRepo, policy),
	)

	// Inject a fixed identity the way APIKeyAuth would.
	identity := &auth.APIKeyInfo{ID: "k1", UserID: "user-1"}
	routes := h.Routes()
	server := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		routes.ServeHTTP(w, r.WithContext(ctx))
	})

	return &fixture{handler: h, carts: carts, products: products, orderRepo: orderRepo, server: server}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- Product endpoints ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decodeBody[[]productResponse](t, rec)
	assert.Len(t, products, 2)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[productResponse](t, rec)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "https://cdn.test/images/p1.jpg", p.ImageURL)
	assert.InDelta(t, 1000, p.RetailPrice, 0.001)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/products/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, http.StatusNotFound, body.Code)
}

// --- Cart endpoints ---

func TestAddCartItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "purchase", view.Items[0].Mode)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.InDelta(t, 1000, view.Totals.PurchaseSubtotal, 0.001)
}

func TestAddCartItem_DuplicateConflicts(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2", Mode: "trial"})
	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2"})

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddCartItem_PurchaseMerges(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})
	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[cartResponse](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "missing"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddCartItem_TrialIneligible(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1", Mode: "trial"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAddCartItem_BadMode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1", Mode: "rent"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCart_WithDestinationQuotes(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodGet, "/cart?pincode=560001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Items[0].Shipping)
	assert.Equal(t, "quoted", view.Items[0].Shipping.Status)
	require.NotNil(t, view.Items[0].Shipping.Fee)
	// Same-locality base fee.
	assert.InDelta(t, 40, *view.Items[0].Shipping.Fee, 0.001)
	assert.Equal(t, "final", view.Totals.ShippingState)
	require.NotNil(t, view.DestinationServiceable)
	assert.True(t, *view.DestinationServiceable)
}

func TestGetCart_NoDestinationAwaitsAddress(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	assert.Equal(t, "awaiting_address", view.Totals.ShippingState)
	assert.Nil(t, view.DestinationServiceable)
}

func TestGetCart_BadPincode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/cart?pincode=0AB123", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodPut, "/cart/items/p1", updateItemRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.InDelta(t, 3000, view.Totals.PurchaseSubtotal, 0.001)
}

func TestUpdateCartItem_TrialQuantityPinned(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2", Mode: "trial"})

	rec := f.do(t, http.MethodPut, "/cart/items/p2", updateItemRequest{Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodDelete, "/cart/items/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	assert.Empty(t, view.Items)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2", Mode: "trial"})

	rec := f.do(t, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	assert.Empty(t, view.Items)
	assert.InDelta(t, 0, view.Totals.GrandTotal, 0.001)
}

func TestCartTotals_TrialFlatFee(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2", Mode: "trial"})

	rec := f.do(t, http.MethodGet, "/cart?pincode=110001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[cartResponse](t, rec)
	assert.InDelta(t, 799, view.Totals.TrialShippingFee, 0.001)
	assert.InDelta(t, 0, view.Totals.PurchaseSubtotal, 0.001)
	assert.InDelta(t, 799, view.Totals.GrandTotal, 0.001)
	assert.Equal(t, "₹799", view.Totals.GrandTotalDisplay)
}

// --- Shipping quote endpoint ---

func TestGetShippingQuote(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/shipping/quote?from=560001&to=560001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.InDelta(t, 40, body["fee"], 0.001)
	assert.InDelta(t, 110, body["express_fee"], 0.001)
}

func TestGetShippingQuote_BadPincode(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/shipping/quote?from=00000&to=560001", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Order endpoints ---

func placeBody() placeOrderRequest {
	return placeOrderRequest{ShippingAddress: order.Address{
		Name:    "Asha Rao",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodPost, "/orders", placeBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	o := decodeBody[orderResponse](t, rec)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Processing", o.Status)
	require.Len(t, o.Items, 1)
	// 1000 subtotal + 40 shipping + 180 GST.
	assert.InDelta(t, 1220, o.Total, 0.001)
	assert.Equal(t, "₹1,220", o.TotalDisplay)
	assert.Equal(t, "One Thousand Two Hundred and Twenty Only", o.TotalInWords)

	// Cart must be empty afterwards.
	view := decodeBody[cartResponse](t, f.do(t, http.MethodGet, "/cart", nil))
	assert.Empty(t, view.Items)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/orders", placeBody())
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaceOrder_MissingAddress(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	body := placeBody()
	body.ShippingAddress.Pincode = ""
	rec := f.do(t, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlaceOrder_InvalidPincode(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	body := placeBody()
	body.ShippingAddress.Pincode = "12AB56"
	rec := f.do(t, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlaceOrder_DelistedProductRejected(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	// Seller pulls the product after it was carted.
	delete(f.products.byID, "p1")

	rec := f.do(t, http.MethodPost, "/orders", placeBody())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[errorResponse](t, rec)
	assert.Contains(t, body.Message, "p1")

	// No order was frozen and the cart is left for the shopper to fix.
	assert.Empty(t, f.orderRepo.byID)
	view := decodeBody[cartResponse](t, f.do(t, http.MethodGet, "/cart", nil))
	assert.Len(t, view.Items, 1)
}

func TestPlaceOrder_PersistenceFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.orderRepo.createErr = errors.New("db down")
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})

	rec := f.do(t, http.MethodPost, "/orders", placeBody())
	require.Equal(t, http.StatusBadGateway, rec.Code)

	view := decodeBody[cartResponse](t, f.do(t, http.MethodGet, "/cart", nil))
	assert.Len(t, view.Items, 1)
}

func TestGetOrder_InvoiceView(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p2", Mode: "trial"})

	placed := decodeBody[orderResponse](t, f.do(t, http.MethodPost, "/orders", placeBody()))

	rec := f.do(t, http.MethodGet, "/orders/"+placed.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	o := decodeBody[orderResponse](t, rec)
	assert.True(t, o.IsTrialOrder)
	require.Len(t, o.Items, 1)
	// Frozen trial line: zero charge, MRP snapshot drives the discount.
	assert.InDelta(t, 0, o.Items[0].Price, 0.001)
	assert.InDelta(t, 7999, o.Items[0].Gross, 0.001)
	assert.InDelta(t, 7999, o.Items[0].Discount, 0.001)
	assert.InDelta(t, 7999, o.TotalDiscount, 0.001)
	assert.InDelta(t, 799, o.Total, 0.001)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/orders/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: "p1"})
	f.do(t, http.MethodPost, "/orders", placeBody())

	rec := f.do(t, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[[]orderResponse](t, rec)
	assert.Len(t, list, 1)
}
