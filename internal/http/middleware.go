package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/sweet-trails/internal/session"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// SessionIdentifier resolves the browser session of a request, issuing one
// if needed.
type SessionIdentifier interface {
	SessionID(w http.ResponseWriter, r *http.Request) (string, error)
}

// SessionMiddleware puts the browser's session id on the request context.
func SessionMiddleware(identity SessionIdentifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identity.SessionID(w, r)
			if err != nil {
				handleError(w, r, fmt.Errorf("issue session: %w", err))
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSessionID(r.Context(), id)))
		})
	}
}
