// Package metrics exposes sale engine counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pos_sales/internal/sales"
)

// Metrics implements sales.Metrics on its own registry.
type Metrics struct {
	registry    *prometheus.Registry
	created     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	canceled    *prometheus.CounterVec
	compensated prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sales_created_total",
			Help: "Sales committed, by payment method.",
		}, []string{"payment_method"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sales_rejected_total",
			Help: "Sale creations that failed, by reason.",
		}, []string{"reason"}),
		canceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sales_canceled_total",
			Help: "Sales canceled, split by whether restoration was partial.",
		}, []string{"partial"}),
		compensated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_stock_compensations_total",
			Help: "Stock reservations given back after a failed sale.",
		}),
	}
	m.registry.MustRegister(
		m.created, m.rejected, m.canceled, m.compensated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) SaleCreated(method sales.PaymentMethod) {
	m.created.WithLabelValues(string(method)).Inc()
}

func (m *Metrics) SaleRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) SaleCanceled(partial bool) {
	label := "false"
	if partial {
		label = "true"
	}
	m.canceled.WithLabelValues(label).Inc()
}

func (m *Metrics) StockCompensated(reservations int) {
	m.compensated.Add(float64(reservations))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
