package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhishekwt3/e-commerce-mobile/api/controllers"
	cartcontrollers "github.com/abhishekwt3/e-commerce-mobile/api/controllers/cart"
	ordercontrollers "github.com/abhishekwt3/e-commerce-mobile/api/controllers/orders"
	"github.com/abhishekwt3/e-commerce-mobile/api/middleware"
	"github.com/abhishekwt3/e-commerce-mobile/internal/address"
	"github.com/abhishekwt3/e-commerce-mobile/internal/auth"
	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/internal/orders"
	product "github.com/abhishekwt3/e-commerce-mobile/internal/products"
	"github.com/abhishekwt3/e-commerce-mobile/internal/reviews"
	"github.com/abhishekwt3/e-commerce-mobile/internal/users"
	"github.com/abhishekwt3/e-commerce-mobile/internal/wishlist"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/auth/session"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/redis"
)

// Services holds the domain services mounted by the router.
type Services struct {
	Auth     auth.Service
	Profile  users.ProfileService
	Address  address.Service
	Catalog  catalog.Service
	Reviews  reviews.Service
	Wishlist wishlist.Service
	Cart     cart.Service
	Orders   orders.Service
	Products product.Service
}

// KeyValueStore is the redis surface used by readiness, idempotency and
// auth rate limiting. *redis.Client satisfies it.
type KeyValueStore interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

var _ KeyValueStore = (*redis.Client)(nil)

// Infra holds the shared infrastructure the middleware stack needs.
type Infra struct {
	DB       db.Pinger
	Redis    KeyValueStore
	Sessions session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, infra.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
	)
	idempotent := middleware.Idempotency(infra.Redis, logg)
	requireAuth := middleware.Auth(cfg.JWT, infra.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(infra)))
	})

	if cfg.Metrics.Enabled && infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, infra.Sessions, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, infra.Redis, logg)).
				Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, infra.Redis, logg), idempotent).
				Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Get("/products", controllers.CatalogProducts(svc.Catalog, logg))
		r.Get("/products/{slug}", controllers.CatalogProductDetail(svc.Catalog, logg))
		r.Get("/products/{slug}/reviews", controllers.ReviewList(svc.Reviews, logg))
		r.With(requireAuth, idempotent).Post("/products/{slug}/reviews", controllers.ReviewCreate(svc.Reviews, logg))
		r.Get("/categories", controllers.CatalogCategories(svc.Catalog, logg))
		r.Get("/search", controllers.CatalogSearch(svc.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.GuestSession(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(svc.Cart, logg))
				r.Post("/", cartcontrollers.Add(svc.Cart, logg))
				r.Put("/", cartcontrollers.Update(svc.Cart, logg))
				r.Delete("/", cartcontrollers.Remove(svc.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/", ordercontrollers.Place(svc.Orders, logg))
				r.Get("/", ordercontrollers.List(svc.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", controllers.ProfileGet(svc.Profile, logg))
				r.Put("/profile", controllers.ProfileUpdate(svc.Profile, logg))
				r.Get("/addresses", controllers.AddressList(svc.Address, logg))
				r.Post("/addresses", controllers.AddressCreate(svc.Address, logg))
				r.Put("/addresses/{addressId}", controllers.AddressUpdate(svc.Address, logg))
				r.Delete("/addresses/{addressId}", controllers.AddressDelete(svc.Address, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistGet(svc.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(svc.Wishlist, logg))
				r.Delete("/", controllers.WishlistRemove(svc.Wishlist, logg))
			})

			r.Route("/admin/products", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Get("/", controllers.AdminProductList(svc.Products, logg))
				r.With(idempotent).Post("/", controllers.AdminProductCreate(svc.Products, logg))
				r.Get("/{productId}", controllers.AdminProductGet(svc.Products, logg))
				r.Put("/{productId}", controllers.AdminProductUpdate(svc.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(svc.Products, logg))
			})
		})
	})

	return r
}

func readinessChecks(infra Infra) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if infra.DB != nil {
		checks["postgres"] = infra.DB
	}
	if infra.Redis != nil {
		checks["redis"] = infra.Redis
	}
	return checks
}
