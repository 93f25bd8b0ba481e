package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adiwirasena/koperasi-pos-backend/api/controllers"
	"github.com/adiwirasena/koperasi-pos-backend/api/middleware"
	accountsvc "github.com/adiwirasena/koperasi-pos-backend/internal/accounts"
	"github.com/adiwirasena/koperasi-pos-backend/internal/auth"
	cartsvc "github.com/adiwirasena/koperasi-pos-backend/internal/cart"
	checkoutsvc "github.com/adiwirasena/koperasi-pos-backend/internal/checkout"
	productsvc "github.com/adiwirasena/koperasi-pos-backend/internal/products"
	reportsvc "github.com/adiwirasena/koperasi-pos-backend/internal/reports"
	transactionsvc "github.com/adiwirasena/koperasi-pos-backend/internal/transactions"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/auth/session"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/config"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/enums"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
	redisclient "github.com/adiwirasena/koperasi-pos-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessionChecker session.AccessSessionChecker,
	redisClient *redisclient.Client,
	authService auth.Service,
	switchService auth.SwitchBranchService,
	accountService accountsvc.Service,
	productService productsvc.Service,
	cartEngine *cartsvc.Engine,
	checkoutService checkoutsvc.Service,
	transactionService transactionsvc.Service,
	reportService reportsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		superAdmin := middleware.RequireRole(string(enums.UserRoleSuperAdmin), logg)

		r.Route("/v1/auth", func(r chi.Router) {
			r.Post("/logout", controllers.AuthLogout(authService, logg))
			r.Post("/switch-branch", controllers.AuthSwitchBranch(switchService, logg))
		})

		r.Route("/v1/accounts", func(r chi.Router) {
			r.Get("/", controllers.ListAccounts(accountService, logg))
			r.Get("/{accountID}", controllers.GetAccount(accountService, logg))
			r.With(superAdmin).Post("/", controllers.CreateAccount(accountService, logg))
			r.With(superAdmin).Patch("/{accountID}", controllers.UpdateAccount(accountService, logg))
			r.With(superAdmin).Delete("/{accountID}", controllers.DeleteAccount(accountService, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/low-stock", controllers.ListLowStock(productService, logg))
			r.Get("/{productID}", controllers.GetProduct(productService, logg))
			r.With(superAdmin).Post("/", controllers.CreateProduct(productService, logg))
			r.With(superAdmin).Patch("/{productID}", controllers.UpdateProduct(productService, logg))
			r.With(superAdmin).Delete("/{productID}", controllers.DeleteProduct(productService, logg))
			r.With(superAdmin).Put("/{productID}/stock", controllers.AdjustStock(productService, logg))
		})

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(cartEngine, logg))
			r.Delete("/", controllers.CartClear(cartEngine, logg))
			r.Post("/items", controllers.CartBeginAdd(cartEngine, logg))
			r.Post("/items/confirm", controllers.CartConfirmAdd(cartEngine, logg))
			r.Post("/items/quantity", controllers.CartChangeQuantity(cartEngine, logg))
			r.Put("/items/quantity", controllers.CartSetQuantity(cartEngine, logg))
			r.Post("/items/remove", controllers.CartRemoveLine(cartEngine, logg))
		})

		r.Post("/v1/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/v1/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(transactionService, logg))
			r.Get("/{transactionID}", controllers.GetTransaction(transactionService, logg))
		})

		r.Route("/v1/reports", func(r chi.Router) {
			r.Get("/summary", controllers.SalesSummary(reportService, logg))
			r.Get("/today", controllers.TodaySummary(reportService, logg))
		})
	})

	return r
}
