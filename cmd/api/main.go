package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/abhishekwt3/e-commerce-mobile/api/routes"
	"github.com/abhishekwt3/e-commerce-mobile/internal/address"
	"github.com/abhishekwt3/e-commerce-mobile/internal/auth"
	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/internal/catalog"
	"github.com/abhishekwt3/e-commerce-mobile/internal/orders"
	"github.com/abhishekwt3/e-commerce-mobile/internal/pricing"
	product "github.com/abhishekwt3/e-commerce-mobile/internal/products"
	"github.com/abhishekwt3/e-commerce-mobile/internal/reviews"
	"github.com/abhishekwt3/e-commerce-mobile/internal/users"
	"github.com/abhishekwt3/e-commerce-mobile/internal/wishlist"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/auth/session"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/migrate"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      logger.ParseFormat(cfg.App.LogFormat),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry := metrics.New(reg)

	services, sessions, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessions,
		Metrics:  registry.HTTP,
		Gatherer: reg,
	}, services)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithField(ctx, "addr", server.Addr)
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case serveErr := <-errCh:
		return serveErr
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.Registry) (routes.Services, *session.Manager, error) {
	gormDB := dbClient.DB()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Services{}, nil, err
	}

	userRepo := users.NewRepository(gormDB)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, nil, err
	}
	profileService, err := users.NewProfileService(userRepo, cfg.Password)
	if err != nil {
		return routes.Services{}, nil, err
	}

	addressService, err := address.NewService(address.NewRepository(gormDB), dbClient)
	if err != nil {
		return routes.Services{}, nil, err
	}

	var productCache *catalog.ProductCache
	if cfg.FeatureFlags.ProductCache {
		productCache = catalog.NewProductCache(redisClient, cfg.Cache.ProductTTL, m.Cache, logg)
	}
	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo, productCache)
	if err != nil {
		return routes.Services{}, nil, err
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gormDB), productCache, logg)
	if err != nil {
		return routes.Services{}, nil, err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(gormDB),
		Ratings:      catalogRepo,
	})
	if err != nil {
		return routes.Services{}, nil, err
	}

	resolver := catalog.NewReader(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, resolver, cfg.GuestSession.TTL)
	if err != nil {
		return routes.Services{}, nil, err
	}
	aggregator, err := cart.NewAggregator(cartRepo, resolver, logg)
	if err != nil {
		return routes.Services{}, nil, err
	}

	calculator, err := pricing.NewCalculator(cfg.Pricing)
	if err != nil {
		return routes.Services{}, nil, err
	}
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	orderService, err := orders.NewService(orders.Deps{
		Repo:       orders.NewRepository(gormDB),
		Carts:      cartRepo,
		Tx:         dbClient,
		Aggregator: aggregator,
		Pricing:    calculator,
		Outbox:     outboxService,
		Metrics:    m.Orders,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, nil, err
	}

	productService, err := product.NewService(product.ServiceParams{
		Repo:   product.NewRepository(gormDB),
		Tx:     dbClient,
		Outbox: outboxService,
		Cache:  productCache,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, nil, err
	}

	return routes.Services{
		Auth:     authService,
		Profile:  profileService,
		Address:  addressService,
		Catalog:  catalogService,
		Reviews:  reviewService,
		Wishlist: wishlistService,
		Cart:     cartService,
		Orders:   orderService,
		Products: productService,
	}, sessionManager, nil
}
