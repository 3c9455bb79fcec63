package cart

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekwt3/e-commerce-mobile/api/middleware"
	cartsvc "github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

type stubCartService struct {
	owner     cartsvc.Owner
	added     cartsvc.AddItemInput
	updated   cartsvc.UpdateItemInput
	removed   uuid.UUID
	created   bool
	removeErr error
}

func (s *stubCartService) GetCart(_ context.Context, owner cartsvc.Owner) (*cartsvc.CartView, error) {
	s.owner = owner
	return &cartsvc.CartView{Items: []cartsvc.CartItemDTO{}}, nil
}

func (s *stubCartService) AddItem(_ context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*cartsvc.ItemResult, error) {
	s.owner = owner
	s.added = input
	return &cartsvc.ItemResult{Message: "ok", Created: s.created}, nil
}

func (s *stubCartService) UpdateItem(_ context.Context, owner cartsvc.Owner, input cartsvc.UpdateItemInput) (*cartsvc.ItemResult, error) {
	s.owner = owner
	s.updated = input
	return &cartsvc.ItemResult{Message: "Item removed from cart"}, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, owner cartsvc.Owner, itemID uuid.UUID) error {
	s.owner = owner
	s.removed = itemID
	return s.removeErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func asGuest(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithGuestSessionID(req.Context(), "guest-session"))
}

func TestGetUsesAuthenticatedUserOverGuest(t *testing.T) {
	svc := &stubCartService{}
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	ctx := middleware.WithGuestSessionID(req.Context(), "guest-session")
	ctx = middleware.WithUserID(ctx, userID.String())

	resp := httptest.NewRecorder()
	Get(svc, testLogger()).ServeHTTP(resp, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.owner.UserID)
	assert.Equal(t, userID, *svc.owner.UserID)
	assert.Empty(t, svc.owner.GuestSessionID)
}

func TestAddStatusFollowsCreated(t *testing.T) {
	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `"}`

	tests := []struct {
		name    string
		created bool
		want    int
	}{
		{name: "new line", created: true, want: http.StatusCreated},
		{name: "merged line", created: false, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCartService{created: tc.created}
			resp := httptest.NewRecorder()
			Add(svc, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body))))

			assert.Equal(t, tc.want, resp.Code)
			assert.Equal(t, productID, svc.added.ProductID)
			assert.Nil(t, svc.added.Quantity)
			assert.Equal(t, "guest-session", svc.owner.GuestSessionID)
		})
	}
}

func TestAddRequiresProduct(t *testing.T) {
	resp := httptest.NewRecorder()
	Add(&stubCartService{}, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity":2}`))))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateAcceptsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	itemID := uuid.New()
	body := `{"item_id":"` + itemID.String() + `","quantity":0}`

	resp := httptest.NewRecorder()
	Update(svc, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodPut, "/api/v1/cart", strings.NewReader(body))))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, itemID, svc.updated.ItemID)
	assert.Equal(t, 0, svc.updated.Quantity)
}

func TestUpdateRequiresQuantity(t *testing.T) {
	body := `{"item_id":"` + uuid.NewString() + `"}`
	resp := httptest.NewRecorder()
	Update(&stubCartService{}, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodPut, "/api/v1/cart", strings.NewReader(body))))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRemove(t *testing.T) {
	itemID := uuid.New()

	t.Run("missing item id", func(t *testing.T) {
		resp := httptest.NewRecorder()
		Remove(&stubCartService{}, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)))
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubCartService{removeErr: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
		resp := httptest.NewRecorder()
		Remove(svc, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodDelete, "/api/v1/cart?itemId="+itemID.String(), nil)))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("removed", func(t *testing.T) {
		svc := &stubCartService{}
		resp := httptest.NewRecorder()
		Remove(svc, testLogger()).ServeHTTP(resp, asGuest(httptest.NewRequest(http.MethodDelete, "/api/v1/cart?itemId="+itemID.String(), nil)))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, itemID, svc.removed)
	})
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	resp := httptest.NewRecorder()
	Get(&stubCartService{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
