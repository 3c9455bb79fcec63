package middleware

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

const (
	SessionIDHeader      = "X-Session-Id"
	GuestSessionIDHeader = "X-Guest-Session-Id"
	GuestSessionIDQuery  = "guestSessionId"

	maxGuestSessionIDLen = 128
	guestSuffixLen       = 9
	guestAlphabet        = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// GuestSession resolves the anonymous shopper identity for requests that
// carry no authenticated user, from the session headers or else the
// guestSessionId query parameter. A missing session id is generated and
// echoed back in the X-Session-Id response header so the client can keep it.
func GuestSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sessionID := guestSessionFromRequest(r)
			if sessionID == "" {
				sessionID = NewGuestSessionID(time.Now())
				ctx = withMintedGuestSession(ctx)
			}
			w.Header().Set(SessionIDHeader, sessionID)

			ctx = WithGuestSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithGuestSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func guestSessionFromRequest(r *http.Request) string {
	candidates := []string{
		r.Header.Get(SessionIDHeader),
		r.Header.Get(GuestSessionIDHeader),
		r.URL.Query().Get(GuestSessionIDQuery),
	}
	for _, raw := range candidates {
		value := strings.TrimSpace(raw)
		if value != "" && len(value) <= maxGuestSessionIDLen {
			return value
		}
	}
	return ""
}

// NewGuestSessionID returns guest-<unix ms>-<9 base36 chars>.
func NewGuestSessionID(now time.Time) string {
	suffix := make([]byte, guestSuffixLen)
	for i := range suffix {
		suffix[i] = guestAlphabet[rand.IntN(len(guestAlphabet))]
	}
	return "guest-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}
