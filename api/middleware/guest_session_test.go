package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var guestIDPattern = regexp.MustCompile(`^guest-\d+-[a-z0-9]{9}$`)

func captureGuest(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	handler := GuestSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GuestSessionIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestGuestSessionUsesHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(GuestSessionIDHeader, "guest-1-abc")
	seen, rec := captureGuest(t, req)
	assert.Equal(t, "guest-1-abc", seen)
	assert.Equal(t, "guest-1-abc", rec.Header().Get(SessionIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionIDHeader, "primary")
	req.Header.Set(GuestSessionIDHeader, "secondary")
	seen, _ = captureGuest(t, req)
	assert.Equal(t, "primary", seen)
}

func TestGuestSessionFallsBackToQueryParam(t *testing.T) {
	seen, rec := captureGuest(t, httptest.NewRequest(http.MethodGet, "/api/v1/orders?guestSessionId=guest-1-history&page=2", nil))
	assert.Equal(t, "guest-1-history", seen)
	assert.Equal(t, "guest-1-history", rec.Header().Get(SessionIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?guestSessionId=from-query", nil)
	req.Header.Set(SessionIDHeader, "from-header")
	seen, _ = captureGuest(t, req)
	assert.Equal(t, "from-header", seen)
}

func TestGuestSessionGeneratesAndEchoesID(t *testing.T) {
	var minted bool
	handler := GuestSession(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		minted = GuestSessionMinted(r.Context())
	}))

	seen, rec := captureGuest(t, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Regexp(t, guestIDPattern, seen)
	assert.Equal(t, seen, rec.Header().Get(SessionIDHeader))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.True(t, minted)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionIDHeader, "guest-1-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, minted)
}

func TestGuestSessionSkipsAuthenticatedUsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	seen, rec := captureGuest(t, req)
	assert.Empty(t, seen)
	assert.Empty(t, rec.Header().Get(SessionIDHeader))
}

func TestNewGuestSessionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewGuestSessionID(now)
	assert.Regexp(t, `^guest-1700000000123-[a-z0-9]{9}$`, id)
	assert.NotEqual(t, id, NewGuestSessionID(now))
}
