package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/money"
	"github.com/go-chi/chi/v5"
)

type CatalogueHandler struct {
	catalogue catalogue.Provider
	timeout   time.Duration
}

func NewCatalogueHandler(provider catalogue.Provider, timeout time.Duration) *CatalogueHandler {
	return &CatalogueHandler{
		catalogue: provider,
		timeout:   timeout,
	}
}

type ProductResponse struct {
	catalogue.Product
	PriceFormatted string `json:"price_formatted"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

type CategoriesResponse struct {
	Categories []catalogue.Category `json:"categories"`
}

func toProductResponse(p catalogue.Product) ProductResponse {
	return ProductResponse{Product: p, PriceFormatted: money.Format(p.Price)}
}

// List returns the whole menu, or one category of it with ?category=.
func (h *CatalogueHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		products []catalogue.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.catalogue.ByCategory(ctx, category)
	} else {
		products, err = h.catalogue.Products(ctx)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := ProductsResponse{Products: make([]ProductResponse, len(products))}
	for i, p := range products {
		resp.Products[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CatalogueHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalogue.Product(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *CatalogueHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalogue.Categories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}
