package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekwt3/e-commerce-mobile/api/middleware"
	"github.com/abhishekwt3/e-commerce-mobile/internal/auth"
	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/internal/reviews"
	"github.com/abhishekwt3/e-commerce-mobile/internal/wishlist"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

type stubAuthService struct {
	registered auth.RegisterRequest
	loggedOut  string
	err        error
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	s.registered = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.AuthResponse{Message: "User created successfully", Token: "jwt"}, nil
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "jwt"}, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, _ auth.RefreshRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "jwt-2"}, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func TestAuthRegister(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"email":"new@example.com","password":"secret1","first_name":"New","last_name":"Shopper"}`

	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "new@example.com", svc.registered.Email)
	assert.Contains(t, resp.Body.String(), `"token":"jwt"`)
}

func TestAuthRegisterValidation(t *testing.T) {
	cases := map[string]string{
		"short password": `{"email":"new@example.com","password":"123","first_name":"N","last_name":"S"}`,
		"bad email":      `{"email":"nope","password":"secret1","first_name":"N","last_name":"S"}`,
		"missing names":  `{"email":"new@example.com","password":"secret1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			AuthRegister(&stubAuthService{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	body := `{"email":"dup@example.com","password":"secret1","first_name":"D","last_name":"U"}`

	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestAuthLogoutRequiresSession(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthLogout(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, svc.loggedOut)
}

func TestAuthNilServiceIsInternal(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthLogin(nil, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"

	t.Run("all up", func(t *testing.T) {
		deps := map[string]Pinger{
			"postgres": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return nil }),
		}
		resp := httptest.NewRecorder()
		HealthReady(cfg, testLogger(), deps).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"redis":"up"`)
		assert.Equal(t, "test", resp.Header().Get("X-Storefront-Env"))
	})

	t.Run("redis down", func(t *testing.T) {
		deps := map[string]Pinger{
			"postgres": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		}
		resp := httptest.NewRecorder()
		HealthReady(cfg, testLogger(), deps).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.Contains(t, resp.Body.String(), `"redis":"down"`)
	})
}

type stubCatalogService struct {
	products   catalog.ListProductsInput
	categories catalog.ListCategoriesInput
	search     catalog.SearchInput
	slug       string
}

func (s *stubCatalogService) ListProducts(_ context.Context, input catalog.ListProductsInput) (*catalog.ProductList, error) {
	s.products = input
	return &catalog.ProductList{Products: []catalog.ProductDTO{}}, nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, slug string) (*catalog.ProductDetail, error) {
	s.slug = slug
	if slug == "missing" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &catalog.ProductDetail{}, nil
}

func (s *stubCatalogService) ListCategories(_ context.Context, input catalog.ListCategoriesInput) (*catalog.CategoryList, error) {
	s.categories = input
	return &catalog.CategoryList{}, nil
}

func (s *stubCatalogService) Search(_ context.Context, input catalog.SearchInput) (*catalog.SearchResult, error) {
	s.search = input
	return &catalog.SearchResult{}, nil
}

func TestCatalogProductsQuery(t *testing.T) {
	svc := &stubCatalogService{}
	resp := httptest.NewRecorder()
	CatalogProducts(svc, testLogger()).ServeHTTP(resp,
		httptest.NewRequest(http.MethodGet, "/api/v1/products?category=audio&featured=true&sort=price&order=asc&page=3&pageSize=24", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, catalog.ListProductsInput{
		Category: "audio",
		Featured: true,
		Sort:     "price",
		Order:    "asc",
		Page:     3,
		PageSize: 24,
	}, svc.products)
}

func TestCatalogProductsDefaults(t *testing.T) {
	svc := &stubCatalogService{}
	resp := httptest.NewRecorder()
	CatalogProducts(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, svc.products.Page)
	assert.Equal(t, catalog.DefaultPageSize, svc.products.PageSize)
}

func TestCatalogProductsRejectsBadFlags(t *testing.T) {
	for _, target := range []string{"/api/v1/products?featured=maybe", "/api/v1/products?pageSize=0", "/api/v1/products?page=x"} {
		resp := httptest.NewRecorder()
		CatalogProducts(&stubCatalogService{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, resp.Code, target)
	}
}

func TestCatalogProductDetail(t *testing.T) {
	svc := &stubCatalogService{}
	router := chi.NewRouter()
	router.Get("/api/v1/products/{slug}", CatalogProductDetail(svc, testLogger()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/wireless-headphones", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "wireless-headphones", svc.slug)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCatalogCategoriesAndSearch(t *testing.T) {
	svc := &stubCatalogService{}

	resp := httptest.NewRecorder()
	CatalogCategories(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/categories?parentId=null&includeProducts=1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "null", svc.categories.ParentID)
	assert.True(t, svc.categories.IncludeProducts)

	resp = httptest.NewRecorder()
	CatalogSearch(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=head&brand=acme&minPrice=10&maxPrice=99.50&inStock=true&sort=price_asc", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "head", svc.search.Query)
	assert.Equal(t, "acme", svc.search.Brand)
	assert.Equal(t, "99.50", svc.search.MaxPrice)
	assert.True(t, svc.search.InStock)
	assert.Equal(t, catalog.DefaultPageSize, svc.search.Limit)
}

type stubReviewService struct {
	created reviews.CreateInput
}

func (s *stubReviewService) List(_ context.Context, _ reviews.ListInput) (*reviews.ReviewList, error) {
	return &reviews.ReviewList{}, nil
}

func (s *stubReviewService) Create(_ context.Context, input reviews.CreateInput) (*catalog.ReviewDTO, error) {
	s.created = input
	return &catalog.ReviewDTO{}, nil
}

func TestReviewCreateBindsUserAndSlug(t *testing.T) {
	svc := &stubReviewService{}
	userID := uuid.New()
	router := chi.NewRouter()
	router.Post("/api/v1/products/{slug}/reviews", ReviewCreate(svc, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/cable/reviews", strings.NewReader(`{"rating":5,"title":"Great"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "cable", svc.created.Slug)
	assert.Equal(t, userID, svc.created.UserID)
	assert.Equal(t, 5, svc.created.Rating)
}

func TestReviewCreateRejectsRatingOutOfRange(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/v1/products/{slug}/reviews", ReviewCreate(&stubReviewService{}, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/cable/reviews", strings.NewReader(`{"rating":6}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

type stubWishlistService struct {
	target wishlist.RemoveTarget
}

func (s *stubWishlistService) GetWishlist(_ context.Context, _ uuid.UUID) (*wishlist.WishlistDTO, error) {
	return &wishlist.WishlistDTO{}, nil
}

func (s *stubWishlistService) AddItem(_ context.Context, _ uuid.UUID, productID uuid.UUID) (*wishlist.ItemDTO, error) {
	return &wishlist.ItemDTO{}, nil
}

func (s *stubWishlistService) RemoveItem(_ context.Context, _ uuid.UUID, target wishlist.RemoveTarget) error {
	s.target = target
	return nil
}

func TestWishlistRemoveByProduct(t *testing.T) {
	svc := &stubWishlistService{}
	productID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/wishlist?productId="+productID.String(), nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	WishlistRemove(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.target.ProductID)
	assert.Equal(t, productID, *svc.target.ProductID)
	assert.Nil(t, svc.target.ItemID)
}

func TestWishlistRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	WishlistGet(&stubWishlistService{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
