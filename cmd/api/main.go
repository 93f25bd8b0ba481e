package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adiwirasena/koperasi-pos-backend/api/routes"
	accountsvc "github.com/adiwirasena/koperasi-pos-backend/internal/accounts"
	"github.com/adiwirasena/koperasi-pos-backend/internal/auth"
	cartsvc "github.com/adiwirasena/koperasi-pos-backend/internal/cart"
	checkoutsvc "github.com/adiwirasena/koperasi-pos-backend/internal/checkout"
	productsvc "github.com/adiwirasena/koperasi-pos-backend/internal/products"
	reportsvc "github.com/adiwirasena/koperasi-pos-backend/internal/reports"
	transactionsvc "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/internal/users"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/auth/session"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/config"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/db"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/metrics"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/migrate"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/pubsub"
	redisclient "github.com/adiwirasena/koperasi-pos-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redisclient.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	changeFeed, err := feed.NewPublisher(pubsubClient.ChangeFeedPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create change feed publisher", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	accountRepo := accountsvc.NewRepository(dbClient.DB())
	productRepo := productsvc.NewRepository(dbClient.DB())
	transactionRepo := transactionsvc.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		AccountRepo:    accountRepo,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	switchService, err := auth.NewSwitchBranchService(auth.SwitchBranchServiceParams{
		AccountRepo:    accountRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create branch switch service", err)
		os.Exit(1)
	}

	accountService, err := accountsvc.NewService(accountRepo, changeFeed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productRepo, dbClient, changeFeed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	snapshotStore, err := cartsvc.NewSnapshotStore(redisClient, cfg.Cart.SnapshotTTL, redisclient.IsNil)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart snapshot store", err)
		os.Exit(1)
	}

	cartEngine, err := cartsvc.NewEngine(productRepo, snapshotStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart engine", err)
		os.Exit(1)
	}

	checkoutStore, err := checkoutsvc.NewStore(dbClient, transactionRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout store", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checkoutService, err := checkoutsvc.NewService(cartEngine, checkoutStore, changeFeed, checkoutMetrics, logg, cfg.Checkout.Strict)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	transactionService, err := transactionsvc.NewService(transactionRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	reportService, err := reportsvc.NewService(transactionRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			sessionManager,
			redisClient,
			authService,
			switchService,
			accountService,
			productService,
			cartEngine,
			checkoutService,
			transactionService,
			reportService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
