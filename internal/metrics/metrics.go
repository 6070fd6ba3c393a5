// Package metrics exposes Prometheus collectors for the site server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Verifications  *prometheus.CounterVec
	GateResets     prometheus.Counter
	CatalogFetches *prometheus.CounterVec
	CarouselIndex  prometheus.Gauge
}

// NewRegistry creates the collectors on a fresh registry. Process and Go
// runtime collectors are included when withRuntime is true.
func NewRegistry(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lwgate",
			Name:      "verifications_total",
			Help:      "License verification attempts by result.",
		}, []string{"result"}),
		GateResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lwgate",
			Name:      "gate_resets_total",
			Help:      "Gate sessions reset to locked.",
		}),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lwgate",
			Name:      "catalog_fetches_total",
			Help:      "Catalog fetches by result.",
		}, []string{"result"}),
		CarouselIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lwgate",
			Name:      "carousel_index",
			Help:      "Index of the slide currently shown.",
		}),
	}

	reg.MustRegister(m.Verifications, m.GateResets, m.CatalogFetches, m.CarouselIndex)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveVerify counts one verification attempt.
func (m *Metrics) ObserveVerify(ok bool) {
	if ok {
		m.Verifications.WithLabelValues(ResultOK).Inc()
		return
	}
	m.Verifications.WithLabelValues(ResultInvalid).Inc()
}

// ObserveFetch counts one catalog fetch.
func (m *Metrics) ObserveFetch(err error) {
	if err != nil {
		m.CatalogFetches.WithLabelValues(ResultError).Inc()
		return
	}
	m.CatalogFetches.WithLabelValues(ResultOK).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
