package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/order"
	"github.com/trialkart/checkout-api/internal/domain/pricing"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/pkg/inr"
)

type placeOrderRequest struct {
	ShippingAddress order.Address `json:"shipping_address"`
}

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MRP       float64 `json:"mrp"`
	Quantity  int     `json:"quantity"`
	Mode      string  `json:"mode"`
	Gross     float64 `json:"gross"`
	Discount  float64 `json:"discount"`
	LineTotal float64 `json:"line_total"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Items           []orderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	TotalDisplay    string              `json:"total_display"`
	TotalInWords    string              `json:"total_in_words"`
	TotalDiscount   float64             `json:"total_discount"`
	Status          string              `json:"status"`
	ShippingAddress order.Address       `json:"shipping_address"`
	IsTrialOrder    bool                `json:"is_trial_order"`
	PlacedAt        string              `json:"placed_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			MRP:       it.MRP.InexactFloat64(),
			Quantity:  it.Quantity,
			Mode:      string(it.Mode),
			Gross:     it.Gross().InexactFloat64(),
			Discount:  it.Discount().InexactFloat64(),
			LineTotal: it.LineTotal().InexactFloat64(),
		}
	}
	return orderResponse{
		ID:              o.ID,
		Items:           items,
		Total:           o.Total.InexactFloat64(),
		TotalDisplay:    inr.Format(o.Total),
		TotalInWords:    inr.Words(o.Total),
		TotalDiscount:   o.TotalDiscount().InexactFloat64(),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		IsTrialOrder:    o.IsTrialOrder,
		PlacedAt:        o.PlacedAt.Format(time.RFC3339),
	}
}

// delistedSince re-reads the carted products in bulk and reports the IDs
// that have disappeared from the catalog since they were added. An order is
// never frozen around a product that can no longer be sold.
func (h *Handler) delistedSince(ctx context.Context, items []cart.LineItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	listed, err := h.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(listed))
	for _, p := range listed {
		found[p.ID] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// PlaceOrder turns the cart into a persisted order. Totals are composed
// against the shipping address destination at placement and handed to the
// order service, which freezes them.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c := h.carts.Get(uid)
	items := c.Items()
	if delisted, err := h.delistedSince(r.Context(), items); err != nil {
		respondInternal(w, r, errors.Wrap(err, "verify cart products"))
		return
	} else if len(delisted) > 0 {
		respondError(w, http.StatusUnprocessableEntity,
			"some cart items are no longer available: "+strings.Join(delisted, ", "))
		return
	}

	quotes := shipping.QuoteItems(r.Context(), h.estimator, items, req.ShippingAddress.Pincode)
	totals := pricing.Compose(items, h.rates, quotes)

	o, err := h.orders.Place(r.Context(), order.PlaceRequest{
		UserID:          uid,
		Cart:            c,
		Totals:          totals,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		h.respondPlaceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) respondPlaceError(w http.ResponseWriter, r *http.Request, err error) {
	var createFailed *order.CreateFailedError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusConflict, "cart is empty")
	case errors.Is(err, order.ErrMissingAddress):
		respondError(w, http.StatusUnprocessableEntity, "shipping address required")
	case errors.Is(err, shipping.ErrInvalidPincode):
		respondError(w, http.StatusUnprocessableEntity, "shipping address pincode is invalid")
	case errors.As(err, &createFailed):
		// The cart is untouched; the shopper can submit again.
		respondError(w, http.StatusBadGateway, "order could not be saved, please try again")
	default:
		respondInternal(w, r, errors.Wrap(err, "place order"))
	}
}

// ListOrders returns the caller's order history, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	list, err := h.orders.History(r.Context(), uid)
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "list orders"))
		return
	}

	out := make([]orderResponse, len(list))
	for i := range list {
		out[i] = toOrderResponse(&list[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetOrder renders a single order as an invoice view with the frozen
// totals. Orders belonging to other users read as not found.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), uid, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "get order"))
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
