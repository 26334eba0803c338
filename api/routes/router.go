package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stadiumcard/stadiumcard-backend/api/controllers"
	webhookcontrollers "github.com/stadiumcard/stadiumcard-backend/api/controllers/webhooks"
	"github.com/stadiumcard/stadiumcard-backend/api/middleware"
	"github.com/stadiumcard/stadiumcard-backend/internal/balance"
	"github.com/stadiumcard/stadiumcard-backend/internal/orders"
	"github.com/stadiumcard/stadiumcard-backend/internal/payouts"
	"github.com/stadiumcard/stadiumcard-backend/internal/profiles"
	stripewebhook "github.com/stadiumcard/stadiumcard-backend/internal/webhooks/stripe"
	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
	"github.com/stadiumcard/stadiumcard-backend/pkg/metrics"
	"github.com/stadiumcard/stadiumcard-backend/pkg/redis"
	"github.com/stadiumcard/stadiumcard-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	profilesSvc profiles.Service,
	ordersSvc orders.Service,
	balanceSvc balance.Service,
	payoutsSvc payouts.Service,
	stripeClient *stripe.Client,
	stripeWebhookSvc *stripewebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient, logg))
	})
	r.Handle("/metrics", metrics.Handler())

	// Signature-verified, not token-authenticated.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookSvc, stripeClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Get("/", controllers.ListPurchases(ordersSvc, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))
			r.Post("/{orderId}/shipped", controllers.MarkOrderShipped(ordersSvc, logg))
			r.Post("/{orderId}/received", controllers.MarkOrderReceived(ordersSvc, logg))
		})

		r.Get("/sales", controllers.ListSales(ordersSvc, logg))
		r.Get("/balance", controllers.GetBalance(balanceSvc, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.RequestPayout(payoutsSvc, logg))
			r.Get("/", controllers.ListPayouts(payoutsSvc, logg))
			r.Get("/fee-tiers", controllers.GetWithdrawalFeeTiers(payoutsSvc, logg))
		})

		r.Route("/bank-account", func(r chi.Router) {
			r.Get("/", controllers.GetBankAccount(payoutsSvc, logg))
			r.Put("/", controllers.RegisterBankAccount(payoutsSvc, logg))
		})

		r.Put("/profile/kana", controllers.UpdateRealNameKana(profilesSvc, logg))

		r.Route("/admin/payouts", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleAdmin, logg))
			r.Get("/", controllers.AdminListPendingPayouts(payoutsSvc, logg))
			r.Post("/{payoutId}/paid", controllers.AdminMarkPayoutPaid(payoutsSvc, logg))
			r.Post("/{payoutId}/reject", controllers.AdminRejectPayout(payoutsSvc, logg))
		})
	})

	return r
}
