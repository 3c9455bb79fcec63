package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
)

type lineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type cartInput struct {
	Email     string      `json:"customer_email" validate:"required,email"`
	Note      string      `json:"note,omitempty" validate:"omitempty,max=5"`
	CartItems []lineInput `json:"cart_items" validate:"required,dive"`
}

func decode(t *testing.T, body string) (cartInput, error) {
	t.Helper()
	var in cartInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &in)
	return in, err
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details should be a field map, got %T", typed.Details())
	return details
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	in, err := decode(t, `{"customer_email":"a@b.co","cart_items":[{"product_id":"p1","quantity":2}]}`)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", in.Email)
	require.Len(t, in.CartItems, 1)
	assert.Equal(t, 2, in.CartItems[0].Quantity)
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	_, err := decode(t, `{"customer_email":"nope","note":"too long","cart_items":[{"product_id":"","quantity":0}]}`)

	details := validationDetails(t, err)
	assert.Equal(t, "must be a valid email", details["customer_email"])
	assert.Equal(t, "must be at most 5 characters", details["note"])
	assert.Equal(t, "is required", details["cart_items[0].product_id"])
	assert.Equal(t, "must be at least 1", details["cart_items[0].quantity"])
}

func TestDecodeJSONBodyRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", ``, "request body is required"},
		{"syntax", `{"customer_email":`, "invalid request body"},
		{"trailing", `{"customer_email":"a@b.co","cart_items":[]} {}`, "request body must contain a single JSON object"},
		{"unknown field", `{"customer_email":"a@b.co","cart_items":[],"coupon":"X"}`, "invalid request body"},
		{"wrong type", `{"customer_email":"a@b.co","cart_items":[{"product_id":"p","quantity":"two"}]}`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.body)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Equal(t, tt.message, typed.Message())
		})
	}
}

func TestDecodeJSONBodyNamesUnknownField(t *testing.T) {
	_, err := decode(t, `{"customer_email":"a@b.co","cart_items":[],"coupon":"X"}`)
	details := validationDetails(t, err)
	assert.Equal(t, "is not allowed", details["coupon"])
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	_, err := decode(t, `{"customer_email":"`+strings.Repeat("a", MaxBodyBytes)+`"}`)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Contains(t, typed.Message(), "exceeds")
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&bad=x", nil)

	v, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = ParseQueryInt(req, "missing", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ParseQueryInt(req, "limit", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(req, "bad", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryBoolAndUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?featured=1&flag=maybe&productId=0b6c8f4e-5d0f-4f55-9a3e-1d2b3c4d5e6f&bad=zzz", nil)

	on, err := ParseQueryBool(req, "featured")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = ParseQueryBool(req, "flag")
	assert.Error(t, err)

	id, err := ParseQueryUUID(req, "productId")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "0b6c8f4e-5d0f-4f55-9a3e-1d2b3c4d5e6f", id.String())

	id, err = ParseQueryUUID(req, "absent")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseQueryUUID(req, "bad")
	assert.Error(t, err)
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "shoe", SanitizeString("  shoe  ", 0))
	assert.Equal(t, "café", SanitizeString("café crème", 4))
	assert.Equal(t, "ab", SanitizeString("ab", 10))
	assert.Equal(t, "naïve", SanitizeString(" naïve ", 5))
}
