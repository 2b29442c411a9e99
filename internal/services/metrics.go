package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// ordersCreated counts committed orders.
	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of committed orders.",
	})

	// orderValue accumulates the value of committed orders.
	orderValue = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_value_total",
		Help: "Sum of committed order totals.",
	})

	// orderReplays counts orders answered from an idempotency record.
	orderReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_idempotent_replays_total",
		Help: "Total number of order requests answered by replay.",
	})

	// enrichment counts catalog details lookups by outcome.
	enrichment = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_enrichment_total",
		Help: "Catalog details lookups by outcome (found, not_found, failed).",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(ordersCreated, orderValue, orderReplays, enrichment)
}
