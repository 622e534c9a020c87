package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daisydays/daisydays-backend/api/controllers"
	"github.com/daisydays/daisydays-backend/api/middleware"
	"github.com/daisydays/daisydays-backend/internal/analytics"
	"github.com/daisydays/daisydays-backend/internal/auth"
	"github.com/daisydays/daisydays-backend/internal/cart"
	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/internal/reviews"
	"github.com/daisydays/daisydays-backend/internal/users"
	"github.com/daisydays/daisydays-backend/internal/wishlist"
	"github.com/daisydays/daisydays-backend/pkg/auth/session"
	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	pkgredis "github.com/daisydays/daisydays-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Nil services answer 500 and
// nil stores disable the middleware that uses them.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiter
	Idempotency pkgredis.IdempotencyStore
	Readiness   map[string]controllers.Pinger

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth      auth.Service
	Users     users.Service
	Products  products.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Orders    orders.Service
	Reviews   reviews.Service
	Analytics analytics.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	maxUpload := cfg.Media.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	googlePolicy := middleware.NewAuthRateLimitPolicy(
		"google-login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0,
	)

	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
	checkoutIdempotency := middleware.Idempotency(deps.Idempotency, middleware.DefaultIdempotencyTTL, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/live", controllers.HealthLive(cfg.App.Env))
			r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps.Readiness, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(googlePolicy, deps.RateLimiter, logg)).Post("/google-login", controllers.AuthGoogleLogin(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/me", controllers.AuthMe(deps.Auth, logg))
				r.Put("/profile", controllers.AuthUpdateProfile(deps.Auth, maxUpload, logg))
				r.Delete("/profile-image", controllers.AuthDeleteProfileImage(deps.Auth, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{id}", controllers.GetProduct(deps.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Post("/", controllers.CreateProduct(deps.Products, maxUpload, logg))
				r.Put("/{id}", controllers.UpdateProduct(deps.Products, maxUpload, logg))
				r.Delete("/{id}", controllers.DeleteProduct(deps.Products, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/", controllers.AddCartItem(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Get("/count", controllers.CartCount(deps.Cart, logg))
			r.Put("/{id}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/{id}", controllers.RemoveCartItem(deps.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", controllers.ListWishlist(deps.Wishlist, logg))
			r.Post("/", controllers.AddWishlistItem(deps.Wishlist, logg))
			r.Delete("/", controllers.ClearWishlist(deps.Wishlist, logg))
			r.Get("/check/{productId}", controllers.CheckWishlist(deps.Wishlist, logg))
			r.Delete("/product/{productId}", controllers.RemoveWishlistProduct(deps.Wishlist, logg))
			r.Put("/{id}", controllers.MoveWishlistItem(deps.Wishlist, logg))
			r.Delete("/{id}", controllers.RemoveWishlistItem(deps.Wishlist, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.With(checkoutIdempotency).Post("/", controllers.PlaceOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(deps.Orders, logg))
			r.Get("/{id}/receipt", controllers.OrderReceipt(deps.Orders, logg))
			r.Put("/{id}", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Delete("/{id}", controllers.CancelOrder(deps.Orders, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", controllers.ListProductReviews(deps.Reviews, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/", controllers.SubmitReview(deps.Reviews, logg))
				r.Get("/check/{productId}", controllers.CheckReviewEligibility(deps.Reviews, logg))
				r.Get("/order/{orderId}", controllers.ListOrderReviews(deps.Reviews, logg))
				r.Put("/{id}", controllers.UpdateReview(deps.Reviews, logg))
				r.With(adminOnly).Post("/bulk-delete", controllers.BulkDeleteReviews(deps.Reviews, logg))
			})

			r.Get("/{id}", controllers.GetReview(deps.Reviews, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Get("/monthly-sales", controllers.MonthlySales(deps.Analytics, logg))
			r.Get("/active-users", controllers.ActiveUsers(deps.Analytics, logg))
			r.Get("/products-by-category", controllers.ProductsByCategory(deps.Analytics, logg))
			r.Get("/orders-stats", controllers.OrderStats(deps.Analytics, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Get("/", controllers.AdminListUsers(deps.Users, logg))
			r.Get("/{id}", controllers.AdminGetUser(deps.Users, logg))
			r.Put("/{id}", controllers.AdminUpdateUser(deps.Users, logg))
		})
	})

	return r
}
