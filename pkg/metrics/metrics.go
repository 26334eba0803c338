package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebhookEvents counts payment-capture deliveries by event type and outcome
	// (processed, duplicate, ignored, failed).
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stadiumcard",
		Subsystem: "webhooks",
		Name:      "events_total",
		Help:      "Stripe webhook events received, by type and outcome.",
	}, []string{"event_type", "outcome"})

	// OrdersCompleted counts buyer receipt confirmations that released funds.
	OrdersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stadiumcard",
		Subsystem: "orders",
		Name:      "completed_total",
		Help:      "Orders moved to completed (funds released).",
	})

	// PayoutRequests counts payout creations by result (created, rejected).
	PayoutRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stadiumcard",
		Subsystem: "payouts",
		Name:      "requests_total",
		Help:      "Payout requests, by result.",
	}, []string{"result"})
)

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
