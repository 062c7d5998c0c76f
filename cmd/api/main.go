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
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/api/routes"
	"github.com/angelmondragon/farmstore-backend/internal/accounts"
	"github.com/angelmondragon/farmstore-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/farmstore-backend/internal/checkout"
	"github.com/angelmondragon/farmstore-backend/internal/coupons"
	"github.com/angelmondragon/farmstore-backend/internal/favorites"
	"github.com/angelmondragon/farmstore-backend/internal/notifications"
	"github.com/angelmondragon/farmstore-backend/internal/orders"
	"github.com/angelmondragon/farmstore-backend/internal/products"
	"github.com/angelmondragon/farmstore-backend/internal/ratings"
	"github.com/angelmondragon/farmstore-backend/internal/users"
	"github.com/angelmondragon/farmstore-backend/pkg/auth/session"
	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/db"
	"github.com/angelmondragon/farmstore-backend/pkg/env"
	"github.com/angelmondragon/farmstore-backend/pkg/instance"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/mailer"
	"github.com/angelmondragon/farmstore-backend/pkg/metrics"
	"github.com/angelmondragon/farmstore-backend/pkg/migrate"
	"github.com/angelmondragon/farmstore-backend/pkg/redis"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	shopperSessions, err := sessionstore.NewRedisStore(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create storefront session store", err)
		os.Exit(1)
	}

	storeMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)
	signupPercent := decimal.NewFromFloat(cfg.Store.SignupDiscountPercent)
	conn := dbClient.DB()

	productRepo := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	couponSvc, err := coupons.NewService(coupons.ServiceParams{
		Repo:          coupons.NewRepository(conn),
		Metrics:       storeMetrics,
		MaxCodeLength: cfg.Store.CouponCodeMaxLength,
	})
	exitOnErr(logg, "failed to create coupon service", err)

	engine, err := cart.NewEngine(productRepo, couponSvc, cart.Options{SignupPercent: signupPercent})
	exitOnErr(logg, "failed to create cart engine", err)

	ratingSvc, err := ratings.NewService(ratings.ServiceParams{
		Repo:            ratings.NewRepository(conn),
		Products:        productRepo,
		Purchases:       orderRepo,
		RequirePurchase: cfg.FeatureFlags.RatingsRequirePurchase,
	})
	exitOnErr(logg, "failed to create ratings service", err)

	catalogueSvc, err := products.NewService(productRepo, ratingSvc)
	exitOnErr(logg, "failed to create catalogue service", err)

	favoriteSvc, err := favorites.NewService(favorites.NewRepository(conn), productRepo)
	exitOnErr(logg, "failed to create favorites service", err)

	accountSvc, err := accounts.NewService(accounts.ServiceParams{
		Users:          users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		StoreConfig:    cfg.Store,
	})
	exitOnErr(logg, "failed to create accounts service", err)

	operator := cfg.Store.OrderNotificationEmail
	if operator == "" {
		operator = cfg.Mail.From
	}
	notifier, err := notifications.NewOrderNotifier(
		mailer.New(cfg.Mail, logg),
		operator,
		storeMetrics,
		logg,
	)
	exitOnErr(logg, "failed to create order notifier", err)

	checkout, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Tx:            dbClient,
		Products:      productRepo,
		Orders:        orderRepo,
		Coupons:       couponSvc,
		Cart:          engine,
		Notifier:      notifier,
		Metrics:       storeMetrics,
		Logger:        logg,
		SignupPercent: signupPercent,
		// customer and operator mails each get the SMTP timeout
		NotifyTimeout: 2 * cfg.Mail.Timeout,
	})
	exitOnErr(logg, "failed to create checkout service", err)

	orderSvc, err := orders.NewService(orderRepo)
	exitOnErr(logg, "failed to create orders service", err)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"dialect":  dbClient.Dialect(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			KV:             redisClient,
			Sessions:       shopperSessions,
			AccessSessions: sessionManager,
			Gatherer:       prometheus.DefaultGatherer,
			Catalogue:      catalogueSvc,
			Cart:           engine,
			Coupons:        couponSvc,
			Checkout:       checkout,
			Ratings:        ratingSvc,
			Favorites:      favoriteSvc,
			Accounts:       accountSvc,
			Orders:         orderSvc,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
		if err := checkout.Drain(shutdownCtx); err != nil {
			logg.Error(ctx, "order notifications still pending at shutdown", err)
		}
	}
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
