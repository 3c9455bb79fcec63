package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

func TestOwnerValidate(t *testing.T) {
	userID := uuid.New()
	cases := []struct {
		name  string
		owner Owner
		ok    bool
	}{
		{name: "user", owner: UserOwner(userID), ok: true},
		{name: "guest", owner: GuestOwner("guest-1700000000000-abcdefghi"), ok: true},
		{name: "neither", owner: Owner{}},
		{name: "blank guest", owner: GuestOwner("   ")},
		{name: "nil user id", owner: Owner{UserID: &uuid.Nil}},
		{name: "both", owner: Owner{UserID: &userID, GuestSessionID: "guest-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.owner.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestOwnerKind(t *testing.T) {
	assert.Equal(t, OwnerKindUser, UserOwner(uuid.New()).Kind())
	guest := GuestOwner("guest-1")
	assert.Equal(t, OwnerKindGuest, guest.Kind())
	if assert.NotNil(t, guest.GuestSessionPtr()) {
		assert.Equal(t, "guest-1", *guest.GuestSessionPtr())
	}
	assert.Nil(t, UserOwner(uuid.New()).GuestSessionPtr())
}
