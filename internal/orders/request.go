package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/types"
)

// PlaceOrderRequest is the JSON body of POST /orders.
type PlaceOrderRequest struct {
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   *string         `json:"customerPhone"`
	CartItems       cart.LinesInput `json:"cartItems"`
	PaymentMethod   string          `json:"paymentMethod"`
	ShippingAddress *AddressInput   `json:"shippingAddress"`
	BillingAddress  *AddressInput   `json:"billingAddress"`
	CustomerNotes   *string         `json:"customerNotes"`
}

// ToInput binds the request to the caller.
func (r PlaceOrderRequest) ToInput(owner cart.Owner) PlaceOrderInput {
	return PlaceOrderInput{
		Owner:           owner,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		Lines:           r.CartItems,
		PaymentMethod:   r.PaymentMethod,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		CustomerNotes:   r.CustomerNotes,
	}
}

// UnmarshalJSON accepts a saved address id as a string, or an address object.
// An object carrying only "id" is treated as a reference.
func (in *AddressInput) UnmarshalJSON(data []byte) error {
	*in = AddressInput{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var id uuid.UUID
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("address id must be a uuid")
		}
		in.ID = &id
		return nil
	}

	var obj struct {
		ID *uuid.UUID `json:"id"`
		types.Address
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&obj); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field ") {
			return err
		}
		return fmt.Errorf("address must be an id or an object")
	}
	in.ID = obj.ID
	if obj.Address != (types.Address{}) {
		snap := obj.Address
		in.Snapshot = &snap
	}
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (in AddressInput) MarshalJSON() ([]byte, error) {
	if in.Snapshot != nil {
		return json.Marshal(in.Snapshot)
	}
	if in.ID != nil {
		return json.Marshal(in.ID.String())
	}
	return []byte("null"), nil
}
