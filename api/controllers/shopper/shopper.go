// Package shopper resolves who a storefront request acts for.
package shopper

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/api/middleware"
	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

// ResolveOwner returns the authenticated user when present, else the guest
// session resolved by middleware.GuestSession.
func ResolveOwner(r *http.Request) (cart.Owner, error) {
	ctx := r.Context()
	if id, ok := middleware.UserUUIDFromContext(ctx); ok {
		return cart.UserOwner(id), nil
	}
	if sessionID := middleware.GuestSessionIDFromContext(ctx); sessionID != "" {
		return cart.GuestOwner(sessionID), nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user or guest session required")
}

// RequireUser returns the authenticated user id or UNAUTHORIZED.
func RequireUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

// PathUUID parses a uuid route parameter.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
