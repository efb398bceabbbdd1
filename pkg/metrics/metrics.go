// Package metrics exposes Prometheus instrumentation for the matching
// engine's order flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the engine's Prometheus collectors.
type Metrics struct {
	OrdersSubmitted  *prometheus.CounterVec
	OrdersRejected   prometheus.Counter
	OrdersCancelled  prometheus.Counter
	TradesExecuted   prometheus.Counter
	QuantityTraded   prometheus.Counter
	RestingOrders    prometheus.Gauge
	SubmitLatency    prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the collectors on a private registry so tests can instantiate
// metrics repeatedly without duplicate registration panics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		OrdersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchbook_orders_submitted_total",
			Help: "Orders accepted into the book, by order type.",
		}, []string{"type"}),
		OrdersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_orders_rejected_total",
			Help: "Orders rejected at admission (duplicate id or gate failure).",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_orders_cancelled_total",
			Help: "Cancel requests processed.",
		}),
		TradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_trades_executed_total",
			Help: "Trades emitted by the matcher.",
		}),
		QuantityTraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "matchbook_quantity_traded_total",
			Help: "Total units exchanged.",
		}),
		RestingOrders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchbook_resting_orders",
			Help: "Orders currently resting in the book.",
		}),
		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchbook_submit_latency_seconds",
			Help:    "Wall time of Submit calls, including matching.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		registry: registry,
	}
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
