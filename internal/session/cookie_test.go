package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentity(t *testing.T) *Identity {
	t.Helper()
	keys, err := EphemeralKeys()
	require.NoError(t, err)
	return NewIdentity(keys, false, nil)
}

func TestSessionID_IssuesCookie(t *testing.T) {
	id := newTestIdentity(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	sessionID, err := id.SessionID(rec, req)

	require.NoError(t, err)
	_, err = uuid.Parse(sessionID)
	assert.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.NotContains(t, cookies[0].Value, sessionID, "cookie value is encrypted")
}

func TestSessionID_ReusesCookie(t *testing.T) {
	id := newTestIdentity(t)

	first := httptest.NewRecorder()
	sessionID, err := id.SessionID(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()

	again, err := id.SessionID(second, req)

	require.NoError(t, err)
	assert.Equal(t, sessionID, again)
	assert.Empty(t, second.Result().Cookies(), "no new cookie for a known session")
}

func TestSessionID_ForeignCookieStartsNewSession(t *testing.T) {
	issuer := newTestIdentity(t)
	rec := httptest.NewRecorder()
	original, err := issuer.SessionID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	other := newTestIdentity(t)
	fresh, err := other.SessionID(httptest.NewRecorder(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, fresh)
	assert.NotEqual(t, original, fresh)
}

func TestContextHelpers(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = FromContext(WithSessionID(context.Background(), ""))
	assert.ErrorIs(t, err, ErrNoSession)

	got, err := FromContext(WithSessionID(context.Background(), "abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
