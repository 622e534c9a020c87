package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/daisydays/daisydays-backend/api/controllers"
	"github.com/daisydays/daisydays-backend/api/routes"
	"github.com/daisydays/daisydays-backend/internal/analytics"
	"github.com/daisydays/daisydays-backend/internal/analytics/query"
	"github.com/daisydays/daisydays-backend/internal/auth"
	"github.com/daisydays/daisydays-backend/internal/cart"
	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/internal/receipts"
	"github.com/daisydays/daisydays-backend/internal/reviews"
	"github.com/daisydays/daisydays-backend/internal/search"
	"github.com/daisydays/daisydays-backend/internal/users"
	"github.com/daisydays/daisydays-backend/internal/wishlist"
	"github.com/daisydays/daisydays-backend/pkg/auth/session"
	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/db"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/redis"
	"github.com/daisydays/daisydays-backend/pkg/storage/gcs"
)

// buildDependencies constructs every service the router needs. Closers are
// returned even on error so partially built clients are released.
func buildDependencies(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Dependencies, []func() error, error) {
	var closers []func() error
	gormDB := dbClient.DB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("session manager: %w", err)
	}

	images, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("gcs: %w", err)
	}
	closers = append(closers, images.Close)

	mediaSvc, err := media.NewService(images, cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("media: %w", err)
	}

	index, err := search.New(cfg.Search, logg)
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("search: %w", err)
	}
	if es, ok := index.(*search.Elastic); ok {
		if err := es.EnsureIndex(ctx); err != nil {
			// Product listing falls back to SQL search when the index is missing.
			logg.Error(ctx, "failed to ensure product index", err)
		}
	}

	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)
	renderer := receipts.NewRenderer(cfg.App.StoreName)

	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	var google auth.GoogleVerifier
	if cfg.Google.ClientID != "" {
		google, err = auth.NewGoogleVerifier(ctx, cfg.Google.ClientID)
		if err != nil {
			return routes.Dependencies{}, closers, fmt.Errorf("google verifier: %w", err)
		}
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		TxRunner:       dbClient,
		SessionManager: sessions,
		Outbox:         emitter,
		Google:         google,
		Media:          mediaSvc,
		App:            cfg.App,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
		Now:            time.Now,
	})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("auth: %w", err)
	}

	usersSvc, err := users.NewService(users.ServiceParams{Repo: userRepo, Sessions: sessions, Logger: logg})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("users: %w", err)
	}

	productsSvc, err := products.NewService(products.ServiceParams{
		Repo:      productRepo,
		TxRunner:  dbClient,
		Media:     mediaSvc,
		Search:    index,
		MaxImages: cfg.Media.MaxProductImages,
		Logger:    logg,
	})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("products: %w", err)
	}

	cartSvc, err := cart.NewService(cart.ServiceParams{CartRepo: cartRepo, ProductRepo: productRepo})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("cart: %w", err)
	}

	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(gormDB),
		ProductRepo:  productRepo,
		Cart:         cartSvc,
		TxRunner:     dbClient,
	})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("wishlist: %w", err)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		ProductRepo: productRepo,
		CartRepo:    cartRepo,
		TxRunner:    dbClient,
		Outbox:      emitter,
		Receipts:    renderer,
		Metrics:     metrics.NewOrderMetrics(reg),
		Logger:      logg,
		Now:         time.Now,
	})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("orders: %w", err)
	}

	reviewsSvc, err := reviews.NewService(reviews.ServiceParams{
		Repo:      reviews.NewRepository(gormDB),
		OrderRepo: orderRepo,
	})
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("reviews: %w", err)
	}

	analyticsSvc, err := analytics.NewService(query.NewStore(gormDB), time.Now)
	if err != nil {
		return routes.Dependencies{}, closers, fmt.Errorf("analytics: %w", err)
	}

	return routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessions,
		RateLimiter: redisClient,
		Idempotency: redisClient,
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"gcs":      images,
		},
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
		Auth:        authSvc,
		Users:       usersSvc,
		Products:    productsSvc,
		Cart:        cartSvc,
		Wishlist:    wishlistSvc,
		Orders:      ordersSvc,
		Reviews:     reviewsSvc,
		Analytics:   analyticsSvc,
	}, closers, nil
}
