// Package metrics expone los contadores de ventas y del canal en vivo en formato Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/storemax-api/internal/application/sales"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
)

var _ sales.Recorder = (*Metrics)(nil)

// Metrics colectores registrados en un registry propio (no el global).
type Metrics struct {
	registry       *prometheus.Registry
	salesCompleted prometheus.Counter
	salesRejected  *prometheus.CounterVec
	saleAmount     prometheus.Counter
	subscribers    prometheus.Gauge
}

// New crea y registra los colectores, más los de runtime de Go y del proceso.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		salesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storemax_sales_completed_total",
			Help: "Ventas confirmadas.",
		}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storemax_sales_rejected_total",
			Help: "Ventas rechazadas por motivo.",
		}, []string{"reason"}),
		saleAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storemax_sale_amount_total",
			Help: "Suma de totalAmount de las ventas confirmadas.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storemax_realtime_subscribers",
			Help: "Conexiones activas al canal en vivo.",
		}),
	}
	m.registry.MustRegister(
		m.salesCompleted, m.salesRejected, m.saleAmount, m.subscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// SaleCompleted cuenta la venta y suma su total.
func (m *Metrics) SaleCompleted(s *entity.Sale) {
	m.salesCompleted.Inc()
	m.saleAmount.Add(s.TotalAmount.InexactFloat64())
}

// SaleRejected cuenta una venta rechazada.
func (m *Metrics) SaleRejected(reason string) {
	m.salesRejected.WithLabelValues(reason).Inc()
}

// Subscribers gauge para el hub del canal en vivo.
func (m *Metrics) Subscribers() prometheus.Gauge {
	return m.subscribers
}

// Handler handler HTTP de /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
