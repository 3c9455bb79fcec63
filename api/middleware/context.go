package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey uint8

const (
	ctxUserID contextKey = iota
	ctxRole
	ctxEmail
	ctxAccessID
	ctxGuestSessionID
	ctxGuestSessionMinted
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxUserID) }
func RoleFromContext(ctx context.Context) string   { return stringValue(ctx, ctxRole) }
func EmailFromContext(ctx context.Context) string  { return stringValue(ctx, ctxEmail) }

// AccessIDFromContext returns the jti of the bearer token, used to revoke the session on logout.
func AccessIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxAccessID) }

func GuestSessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxGuestSessionID)
}

// UserUUIDFromContext parses the authenticated user id, if any.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, ctxUserID, userID)
}

func WithRole(ctx context.Context, role string) context.Context {
	return withString(ctx, ctxRole, role)
}

func WithGuestSessionID(ctx context.Context, sessionID string) context.Context {
	return withString(ctx, ctxGuestSessionID, sessionID)
}

// GuestSessionMinted reports whether the guest session id was generated for
// this request rather than sent by the client.
func GuestSessionMinted(ctx context.Context) bool {
	minted, _ := ctx.Value(ctxGuestSessionMinted).(bool)
	return minted
}

func withMintedGuestSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxGuestSessionMinted, true)
}

func withClaims(ctx context.Context, userID, role, email, accessID string) context.Context {
	ctx = withString(ctx, ctxUserID, userID)
	ctx = withString(ctx, ctxRole, role)
	ctx = withString(ctx, ctxEmail, email)
	return withString(ctx, ctxAccessID, accessID)
}
