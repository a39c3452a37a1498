package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storelane/storelane-backend/api/controllers"
	"github.com/storelane/storelane-backend/api/middleware"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/internal/pricing"
	"github.com/storelane/storelane-backend/pkg/config"
	"github.com/storelane/storelane-backend/pkg/db"
	"github.com/storelane/storelane-backend/pkg/logger"
	"github.com/storelane/storelane-backend/pkg/metrics"
	"github.com/storelane/storelane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pricingSvc pricing.Service,
	pendingStore pending.Store,
	cardConfirmer payments.Confirmer,
	debitAdapter *payments.BankDebit,
	ordersSvc orders.Service,
	met *metrics.CheckoutMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutSessionLimit,
	)

	checkoutDeps := controllers.CheckoutDeps{
		Pricing: pricingSvc,
		Pending: pendingStore,
		Card:    cardConfirmer,
		Debit:   debitAdapter,
		Orders:  ordersSvc,
		Metrics: met,
		Logger:  logg,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Provider callbacks authenticate with a body signature, not a shopper
	// session.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/bankdebit", controllers.BankDebitCallback(pendingStore, debitAdapter, ordersSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/cart/quote", controllers.CartQuote(pricingSvc, logg))

		r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
			Post("/checkout", controllers.Checkout(checkoutDeps))
		r.Get("/checkout/return", controllers.CheckoutReturn(pendingStore, debitAdapter, ordersSvc, logg))

		r.Route("/orders/{orderNumber}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(ordersSvc, logg))
			r.Post("/cancel", controllers.OrderCancel(ordersSvc, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(ordersSvc, logg))
				r.Post("/{orderNumber}/status", controllers.AdminOrderTransition(ordersSvc, logg))
			})
		})
	})

	return r
}
