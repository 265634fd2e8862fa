package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/trialkart/checkout-api/internal/domain/catalog"
)

// productResponse is the JSON shape of one catalog item.
type productResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	RetailPrice   float64 `json:"retail_price"`
	MRP           float64 `json:"mrp"`
	Category      string  `json:"category"`
	ImageURL      string  `json:"image_url"`
	TrialEligible bool    `json:"trial_eligible"`
}

func (h *Handler) toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		RetailPrice:   p.RetailPrice.InexactFloat64(),
		MRP:           p.MRP.InexactFloat64(),
		Category:      p.Category,
		ImageURL:      h.imageBaseURL + p.ImageURL,
		TrialEligible: p.TrialEligible,
	}
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "list products"))
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondInternal(w, r, errors.Wrap(err, "get product"))
		return
	}

	respondJSON(w, http.StatusOK, h.toProductResponse(*p))
}
