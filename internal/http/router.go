// Package http exposes the storefront over a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Cart           *CartHandler
	Catalogue      *CatalogueHandler
	Sessions       SessionIdentifier
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalogue", func(r chi.Router) {
			r.Get("/", cfg.Catalogue.List)
			r.Get("/categories", cfg.Catalogue.Categories)
			r.Get("/{product_id}", cfg.Catalogue.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Sessions))

			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
			r.Post("/toggle", cfg.Cart.Toggle)
			r.Post("/open", cfg.Cart.Open)
			r.Post("/close", cfg.Cart.Close)
			r.Get("/checkout", cfg.Cart.Checkout)
		})
	})

	return r
}
