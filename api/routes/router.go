package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/farmstore-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/farmstore-backend/api/controllers/orders"
	"github.com/angelmondragon/farmstore-backend/api/middleware"
	"github.com/angelmondragon/farmstore-backend/internal/accounts"
	checkoutsvc "github.com/angelmondragon/farmstore-backend/internal/checkout"
	"github.com/angelmondragon/farmstore-backend/internal/coupons"
	"github.com/angelmondragon/farmstore-backend/internal/favorites"
	"github.com/angelmondragon/farmstore-backend/internal/orders"
	"github.com/angelmondragon/farmstore-backend/internal/products"
	"github.com/angelmondragon/farmstore-backend/internal/ratings"
	"github.com/angelmondragon/farmstore-backend/pkg/auth/session"
	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

// KVStore is the Redis surface the HTTP layer needs. Without one, auth rate
// limits fall back to an in-process limiter and idempotent replays are off.
type KVStore interface {
	middleware.RateLimitStore
	middleware.IdempotencyStore
	controllers.Pinger
}

// Dependencies groups everything the router wires into handlers.
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	KV             KVStore
	Sessions       sessionstore.Store
	AccessSessions session.AccessSessionChecker
	Gatherer       prometheus.Gatherer

	Catalogue products.Service
	Cart      controllers.CartEngine
	Coupons   coupons.Service
	Checkout  checkoutsvc.Service
	Ratings   ratings.Service
	Favorites favorites.Service
	Accounts  accounts.Service
	Orders    orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var (
		rateStore middleware.RateLimitStore
		idemStore middleware.IdempotencyStore
	)
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.KV != nil {
		rateStore = deps.KV
		idemStore = deps.KV
		readiness["redis"] = deps.KV
	} else {
		rateStore = middleware.NewLocalRateStore()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, cfg.Session, logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, deps.AccessSessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/catalogue", controllers.Catalogue(deps.Catalogue, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(deps.Cart, deps.Accounts, logg))
			r.Post("/{productId}/add", controllers.CartAdd(deps.Cart, logg))
			r.Post("/{productId}/qty", controllers.CartSetQuantity(deps.Cart, logg))
			r.Post("/{productId}/remove", controllers.CartRemove(deps.Cart, logg))
		})
		r.Post("/coupon", controllers.ApplyCoupon(deps.Coupons, logg))

		r.Get("/checkout", controllers.CheckoutPreview(deps.Checkout, deps.Accounts, logg))
		r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.Accounts, logg))
		r.Get("/orders/{orderId}/confirmation", ordercontrollers.Confirmation(deps.Orders, logg))

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/reviews", controllers.ProductReviews(deps.Ratings, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Post("/rate", controllers.RateProduct(deps.Ratings, logg))
				r.Post("/favorite", controllers.ToggleFavorite(deps.Favorites, logg))
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, rateStore, logg)).Post("/signup", controllers.AccountsSignup(deps.Accounts, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AccountsLogin(deps.Accounts, deps.Favorites, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Post("/logout", controllers.AccountsLogout(deps.Accounts, logg))
				r.Get("/profile", controllers.AccountsProfile(deps.Accounts, logg))
				r.Put("/profile", controllers.AccountsUpdateProfile(deps.Accounts, logg))
				r.Get("/orders", ordercontrollers.List(deps.Orders, logg))
				r.Get("/orders/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			})
		})
	})

	return r
}
