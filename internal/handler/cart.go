package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/catalog"
	"github.com/trialkart/checkout-api/internal/domain/pricing"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/pkg/inr"
)

const dateLayout = "2006-01-02"

type addItemRequest struct {
	ProductID string `json:"product_id"`
	// Mode is "purchase" (default) or "trial".
	Mode string `json:"mode,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// itemShippingResponse describes the shipping state of one line item. Fee
// fields are present only when a quote resolved; the status distinguishes
// free shipping from "cannot calculate" and "awaiting address".
type itemShippingResponse struct {
	Status           string   `json:"status"`
	Fee              *float64 `json:"fee,omitempty"`
	ExpressFee       *float64 `json:"express_fee,omitempty"`
	StandardDelivery string   `json:"standard_delivery,omitempty"`
	ExpressDelivery  string   `json:"express_delivery,omitempty"`
}

type cartItemResponse struct {
	ProductID string                `json:"product_id"`
	Name      string                `json:"name"`
	Category  string                `json:"category"`
	UnitPrice float64               `json:"unit_price"`
	Quantity  int                   `json:"quantity"`
	Mode      string                `json:"mode"`
	LineTotal float64               `json:"line_total"`
	Shipping  *itemShippingResponse `json:"shipping,omitempty"`
}

type taxEntryResponse struct {
	Category    string  `json:"category"`
	RatePercent float64 `json:"rate_percent"`
	Amount      float64 `json:"amount"`
}

type totalsResponse struct {
	ItemCount         int                `json:"item_count"`
	PurchaseSubtotal  float64            `json:"purchase_subtotal"`
	TrialShippingFee  float64            `json:"trial_shipping_fee"`
	TotalShippingFee  float64            `json:"total_shipping_fee"`
	GSTBreakdown      []taxEntryResponse `json:"gst_breakdown"`
	TotalGST          float64            `json:"total_gst"`
	GrandTotal        float64            `json:"grand_total"`
	GrandTotalDisplay string             `json:"grand_total_display"`
	ShippingState     string             `json:"shipping_state"`
}

type cartResponse struct {
	Items                  []cartItemResponse `json:"items"`
	DestinationPincode     string             `json:"destination_pincode,omitempty"`
	DestinationServiceable *bool              `json:"destination_serviceable,omitempty"`
	Totals                 totalsResponse     `json:"totals"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	breakdown := make([]taxEntryResponse, len(t.TaxBreakdown))
	for i, e := range t.TaxBreakdown {
		breakdown[i] = taxEntryResponse{
			Category:    e.Category,
			RatePercent: e.RatePercent.InexactFloat64(),
			Amount:      e.Amount.InexactFloat64(),
		}
	}
	return totalsResponse{
		ItemCount:         t.ItemCount,
		PurchaseSubtotal:  t.PurchaseSubtotal.InexactFloat64(),
		TrialShippingFee:  t.TrialShippingFee.InexactFloat64(),
		TotalShippingFee:  t.TotalShippingFee.InexactFloat64(),
		GSTBreakdown:      breakdown,
		TotalGST:          t.TotalTax.InexactFloat64(),
		GrandTotal:        t.GrandTotal.InexactFloat64(),
		GrandTotalDisplay: inr.Format(t.GrandTotal.Round(2)),
		ShippingState:     string(t.ShippingState),
	}
}

func toItemShippingResponse(iq shipping.ItemQuote) *itemShippingResponse {
	resp := &itemShippingResponse{Status: string(iq.Status)}
	if iq.Status == shipping.StatusQuoted && iq.Quote != nil {
		fee := iq.Quote.Fee.InexactFloat64()
		expressFee := iq.Quote.ExpressFee.InexactFloat64()
		resp.Fee = &fee
		resp.ExpressFee = &expressFee
		resp.StandardDelivery = iq.Quote.StandardDelivery.Format(dateLayout)
		resp.ExpressDelivery = iq.Quote.ExpressDelivery.Format(dateLayout)
	}
	return resp
}

// buildCartView quotes shipping for every purchase item, composes the
// totals, and assembles the response. destination may be empty, in which
// case shipping figures come back as awaiting-address.
func (h *Handler) buildCartView(r *http.Request, c *cart.Cart, destination string) cartResponse {
	ctx := r.Context()
	items := c.Items()
	quotes := shipping.QuoteItems(ctx, h.estimator, items, destination)
	totals := pricing.Compose(items, h.rates, quotes)

	out := cartResponse{
		Items:              make([]cartItemResponse, len(items)),
		DestinationPincode: destination,
		Totals:             toTotalsResponse(totals),
	}

	for i, li := range items {
		item := cartItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Category:  li.Category,
			UnitPrice: li.UnitPrice.InexactFloat64(),
			Quantity:  li.Quantity,
			Mode:      string(li.Mode),
			LineTotal: li.Subtotal().InexactFloat64(),
		}
		if iq, ok := quotes[li.ProductID]; ok {
			item.Shipping = toItemShippingResponse(iq)
		}
		out.Items[i] = item
	}

	if destination != "" {
		serviceable, err := h.serviceability.IsServiceable(ctx, destination)
		if err != nil {
			// Coverage data is advisory; log and omit rather than fail the render.
			zctx.From(ctx).Warn("serviceability check failed",
				zap.String("pincode", destination),
				zap.Error(err),
			)
		} else {
			out.DestinationServiceable = &serviceable
		}
	}

	return out
}

// GetCart renders the cart with per-item shipping and composed totals. The
// optional pincode query parameter is the delivery destination.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	destination := r.URL.Query().Get("pincode")
	if destination != "" && !shipping.ValidPincode(destination) {
		respondError(w, http.StatusBadRequest, "invalid pincode format")
		return
	}

	respondJSON(w, http.StatusOK, h.buildCartView(r, h.carts.Get(uid), destination))
}

// AddCartItem adds a product to the cart in purchase or trial mode.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "product_id required")
		return
	}

	mode := cart.ModePurchase
	if req.Mode != "" {
		mode = cart.Mode(req.Mode)
		if !mode.Valid() {
			respondError(w, http.StatusBadRequest, "mode must be purchase or trial")
			return
		}
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusUnprocessableEntity, "product not found")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "get product"))
		return
	}
	if mode == cart.ModeTrial && !p.TrialEligible {
		respondError(w, http.StatusUnprocessableEntity, "product not eligible for home trial")
		return
	}

	c := h.carts.Get(uid)
	if err := c.Add(*p, mode); err != nil {
		if errors.Is(err, cart.ErrAlreadyInCart) {
			respondError(w, http.StatusConflict,
				"this product is already in your cart, either for purchase or for trial")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "add to cart"))
		return
	}

	respondJSON(w, http.StatusOK, h.buildCartView(r, c, ""))
}

// UpdateCartItem sets a purchase item's quantity. Zero or negative removes
// the item; for a trial item the call is a no-op and still returns 200.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c := h.carts.Get(uid)
	c.SetQuantity(chi.URLParam(r, "productID"), req.Quantity)

	respondJSON(w, http.StatusOK, h.buildCartView(r, c, ""))
}

// RemoveCartItem deletes one line item unconditionally.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	c := h.carts.Get(uid)
	c.Remove(chi.URLParam(r, "productID"))

	respondJSON(w, http.StatusOK, h.buildCartView(r, c, ""))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	c := h.carts.Get(uid)
	c.Clear()

	respondJSON(w, http.StatusOK, h.buildCartView(r, c, ""))
}

// GetShippingQuote estimates shipping between two pincodes directly.
func (h *Handler) GetShippingQuote(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	q, err := h.estimator.Estimate(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidPincode) {
			respondError(w, http.StatusBadRequest, "invalid pincode format")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "estimate shipping"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"fee":               q.Fee.InexactFloat64(),
		"express_fee":       q.ExpressFee.InexactFloat64(),
		"standard_delivery": q.StandardDelivery.Format(dateLayout),
		"express_delivery":  q.ExpressDelivery.Format(dateLayout),
	})
}
