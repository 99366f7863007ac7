package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		webhookEventsTotal,
		stockShortfallsTotal,
		revenueTotal,
	)
}

var (
	checkoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout preferences successfully created.",
		},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook reconciliation outcomes (committed/discarded/intermediate/duplicate_or_unknown).",
		},
		[]string{"outcome"},
	)

	stockShortfallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_shortfalls_total",
			Help: "Order lines that hit insufficient stock at settlement time.",
		},
	)

	revenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_revenue_total",
			Help: "Total monetary value of committed purchases, in ARS.",
		},
	)
)

func IncCheckout() { checkoutsTotal.Inc() }

func IncWebhook(outcome string) {
	webhookEventsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncStockShortfall() { stockShortfallsTotal.Inc() }

func AddRevenue(amount float64) { revenueTotal.Add(amount) }
