// Package handler exposes the checkout core over a JSON HTTP API. Handlers
// stay thin: every price figure comes from the pricing composer, never from
// handler-local arithmetic.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/catalog"
	"github.com/trialkart/checkout-api/internal/domain/gst"
	"github.com/trialkart/checkout-api/internal/domain/order"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Handler serves the storefront API, delegating all business logic to the
// injected domain services.
type Handler struct {
	products       catalog.Repository
	carts          *cart.Store
	rates          *gst.RateTable
	estimator      shipping.Estimator
	serviceability shipping.Serviceability
	orders         *order.Service
	imageBaseURL   string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products catalog.Repository,
	carts *cart.Store,
	rates *gst.RateTable,
	estimator shipping.Estimator,
	serviceability shipping.Serviceability,
	orders *order.Service,
) *Handler {
	return &Handler{
		products:       products,
		carts:          carts,
		rates:          rates,
		estimator:      estimator,
		serviceability: serviceability,
		orders:         orders,
		imageBaseURL:   cfg.ImageBaseURL,
	}
}

// Routes mounts every API route on a fresh chi router. Authentication is
// applied by the caller; these routes assume an identity in the context.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Get("/cart", h.GetCart)
	r.Delete("/cart", h.ClearCart)
	r.Post("/cart/items", h.AddCartItem)
	r.Put("/cart/items/{productID}", h.UpdateCartItem)
	r.Delete("/cart/items/{productID}", h.RemoveCartItem)

	r.Get("/shipping/quote", h.GetShippingQuote)

	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderID}", h.GetOrder)

	return r
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondInternal logs err and returns an opaque 500 body.
func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("internal error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal error")
}
