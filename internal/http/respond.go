package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/session"
	"github.com/unrolled/render"
)

var renderer = render.New(render.Options{
	UnEscapeHTML: true,
})

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := renderer.JSON(w, status, data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors onto HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalogue.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, ErrQuantityLimit):
		respondError(w, http.StatusUnprocessableEntity, "quantity_limit", "line quantity limit reached")
	case errors.Is(err, session.ErrNoSession):
		respondError(w, http.StatusBadRequest, "no_session", "missing session")
	case errors.Is(err, cart.ErrLoadFailed):
		slog.WarnContext(r.Context(), "cart storage unavailable", "path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart storage unavailable, try again")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "request_id", getRequestID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
