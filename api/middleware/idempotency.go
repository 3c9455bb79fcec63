package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/abhishekwt3/e-commerce-mobile/api/responses"
	"github.com/abhishekwt3/e-commerce-mobile/api/validators"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour

	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

// idempotentRoutes maps "METHOD pattern" to how long a stored response is
// replayed. Patterns are chi route patterns.
var idempotentRoutes = map[string]time.Duration{
	"POST /api/v1/orders":                  criticalIdempotencyTTL,
	"POST /api/v1/auth/register":           defaultIdempotencyTTL,
	"POST /api/v1/products/{slug}/reviews": defaultIdempotencyTTL,
	"POST /api/v1/admin/products":          defaultIdempotencyTTL,
}

// storedResponse is the redis value for a key. Pending marks a claim whose
// handler has not finished yet.
type storedResponse struct {
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
	Pending     bool   `json:"pending,omitempty"`
}

type idempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

var (
	errKeyInFlight = pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress")
	errKeyReused   = pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
)

// Idempotency replays the stored response when a listed route is retried
// with the same Idempotency-Key and body. Requests without the header pass
// through, and so do guests whose session id was minted for this request:
// a guest retry only replays when it echoes the X-Session-Id it was given. The key is claimed before the handler runs, so a concurrent retry
// gets a conflict, and it is released again when the handler answers 5xx.
func Idempotency(store idempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, listed := routeTTL(r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !listed || store == nil || clientKey == "" || GuestSessionMinted(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			fail := func(err error) { responses.WriteError(r.Context(), logg, w, err) }
			if len(clientKey) > maxIdempotencyKeyLen {
				fail(pkgerrors.Newf(pkgerrors.CodeValidation, "Idempotency-Key exceeds %d characters", maxIdempotencyKeyLen))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				var sizeErr *http.MaxBytesError
				if errors.As(err, &sizeErr) {
					fail(pkgerrors.Newf(pkgerrors.CodeValidation, "request body exceeds %d bytes", sizeErr.Limit))
					return
				}
				fail(pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := hashBody(body)
			key := store.IdempotencyKey(buildScope(r), clientKey)

			prior, err := loadStored(r.Context(), store, key)
			switch {
			case err != nil:
				fail(err)
				return
			case prior != nil:
				replay(w, prior, hash, fail)
				return
			}

			claim, _ := json.Marshal(storedResponse{RequestHash: hash, Pending: true})
			claimed, err := store.SetNX(r.Context(), key, string(claim), ttl)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				fail(errKeyInFlight)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			settle(context.WithoutCancel(r.Context()), store, logg, key, ttl, hash, capture)
		})
	}
}

func loadStored(ctx context.Context, store idempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &stored, nil
}

func replay(w http.ResponseWriter, stored *storedResponse, hash string, fail func(error)) {
	switch {
	case stored.RequestHash != hash:
		fail(errKeyReused)
	case stored.Pending:
		fail(errKeyInFlight)
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

// settle stores the captured response under key, or drops the claim when
// the handler failed server-side so the client can retry.
func settle(ctx context.Context, store idempotencyStore, logg *logger.Logger, key string, ttl time.Duration, hash string, capture *responseCapture) {
	status := capture.status
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		logError(ctx, logg, "release idempotency key", store.Del(ctx, key))
		return
	}
	payload, err := json.Marshal(storedResponse{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		RequestHash: hash,
	})
	if err != nil {
		logError(ctx, logg, "encode idempotency record", err)
		return
	}
	logError(ctx, logg, "persist idempotency record", store.Set(ctx, key, string(payload), ttl))
}

// buildScope keys records per shopper identity and path.
func buildScope(r *http.Request) string {
	owner := UserIDFromContext(r.Context())
	if owner == "" {
		owner = "guest:" + GuestSessionIDFromContext(r.Context())
	}
	return owner + "|" + r.Method + "|" + r.URL.Path
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// routeTTL ignores a trailing slash left by mounted subrouters.
func routeTTL(method, pattern string) (time.Duration, bool) {
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
