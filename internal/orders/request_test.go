package orders

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressInputDecodesReferenceForms(t *testing.T) {
	id := uuid.New()

	var fromString AddressInput
	require.NoError(t, json.Unmarshal([]byte(`"`+id.String()+`"`), &fromString))
	require.NotNil(t, fromString.ID)
	assert.Equal(t, id, *fromString.ID)
	assert.Nil(t, fromString.Snapshot)

	var fromObject AddressInput
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+id.String()+`"}`), &fromObject))
	require.NotNil(t, fromObject.ID)
	assert.Equal(t, id, *fromObject.ID)
	assert.Nil(t, fromObject.Snapshot)
}

func TestAddressInputDecodesSnapshot(t *testing.T) {
	var in AddressInput
	raw := `{"first_name":"Ada","last_name":"Lovelace","address1":"1 Main","city":"Austin","state":"TX","postal_code":"78701"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &in))

	assert.Nil(t, in.ID)
	require.NotNil(t, in.Snapshot)
	assert.Equal(t, "Austin", in.Snapshot.City)
	assert.Equal(t, "78701", in.Snapshot.PostalCode)
}

func TestAddressInputRejectsUnknownFields(t *testing.T) {
	var in AddressInput
	err := json.Unmarshal([]byte(`{"first_name":"Ada","postalCode":"78701"}`), &in)
	require.Error(t, err)
	assert.Equal(t, `json: unknown field "postalCode"`, err.Error())

	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &in))
	assert.Error(t, json.Unmarshal([]byte(`42`), &in))
}

func TestPlaceOrderRequestUsesCamelCaseFields(t *testing.T) {
	lineID := uuid.New()
	var req PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"customerEmail":"a@b.co","paymentMethod":"card","cartItems":["`+lineID.String()+`"]}`), &req))

	assert.Equal(t, "a@b.co", req.CustomerEmail)
	assert.Equal(t, "card", req.PaymentMethod)
	assert.Equal(t, []uuid.UUID{lineID}, req.CartItems.References)

	data, err := json.Marshal(PlacedOrder{OrderNumber: "ORD-1", TotalAmount: "1.00"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"orderNumber":"ORD-1"`)
	assert.Contains(t, string(data), `"totalAmount":"1.00"`)
}
