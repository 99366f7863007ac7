package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsTotal,
		subscriptionsExpired,
	)
}

var (
	subscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_total",
			Help: "Subscription payment outcomes (approved/rejected/cancelled).",
		},
		[]string{"status"},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions transitioned to expired by the sweep worker.",
		},
	)
)

func IncSubscription(status string) {
	subscriptionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncSubscriptionsExpired(n int) {
	subscriptionsExpired.Add(float64(n))
}
