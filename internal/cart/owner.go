package cart

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

const (
	OwnerKindUser  = "user"
	OwnerKindGuest = "guest"
)

// Owner identifies whose cart or orders are addressed: exactly one of a
// registered user or an anonymous guest session.
type Owner struct {
	UserID         *uuid.UUID
	GuestSessionID string
}

func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

func GuestOwner(sessionID string) Owner {
	return Owner{GuestSessionID: strings.TrimSpace(sessionID)}
}

// Validate enforces that exactly one identity is set.
func (o Owner) Validate() error {
	hasUser := o.UserID != nil && *o.UserID != uuid.Nil
	hasGuest := strings.TrimSpace(o.GuestSessionID) != ""
	switch {
	case hasUser && hasGuest:
		return pkgerrors.New(pkgerrors.CodeValidation, "owner must be a user or a guest session, not both")
	case !hasUser && !hasGuest:
		return pkgerrors.New(pkgerrors.CodeValidation, "user or guest session required")
	}
	return nil
}

func (o Owner) IsGuest() bool {
	return o.UserID == nil || *o.UserID == uuid.Nil
}

// Kind is "user" or "guest", used for metrics and logs.
func (o Owner) Kind() string {
	if o.IsGuest() {
		return OwnerKindGuest
	}
	return OwnerKindUser
}

// GuestSessionPtr is the guest_session_id column value for this owner.
func (o Owner) GuestSessionPtr() *string {
	if !o.IsGuest() {
		return nil
	}
	id := o.GuestSessionID
	return &id
}

// Scope restricts a query on a table with user_id and guest_session_id
// columns to rows owned by o.
func (o Owner) Scope(db *gorm.DB) *gorm.DB {
	if o.IsGuest() {
		return db.Where("guest_session_id = ? AND user_id IS NULL", o.GuestSessionID)
	}
	return db.Where("user_id = ?", *o.UserID)
}
