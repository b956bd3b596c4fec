package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	CookieName   = "sweet_trails_session"
	sessionIDKey = "session_id"
	cookieMaxAge = 30 * 24 * time.Hour
)

var ErrNoSession = errors.New("no session")

// Identity hands every browser a stable session id kept in a signed,
// encrypted cookie.
type Identity struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

func NewIdentity(keys Keys, secure bool, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	store := sessions.NewCookieStore(keys.AuthKey, keys.EncKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Identity{store: store, logger: logger}
}

// SessionID returns the id carried by the request cookie, issuing a new one
// (and setting the cookie on w) when the cookie is missing or unreadable.
func (i *Identity) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := i.store.Get(r, CookieName)
	if err != nil {
		// tampered or signed with old keys; Get still returns a fresh session
		i.logger.InfoContext(r.Context(), "discarding unreadable session cookie", "error", err)
	}

	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

type ctxKey struct{}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}
