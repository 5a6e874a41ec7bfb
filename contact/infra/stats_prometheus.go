package infra

import (
	"context"
	"net/http"

	"contact-gateway/contact/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusStats expõe os desfechos do gateway em formato Prometheus,
// com registry próprio (isolado do default, fácil de testar).
//
// O label é só o outcome: cliente/IP não vira label (cardinalidade).
type PrometheusStats struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewPrometheusStats() *PrometheusStats {
	reg := prometheus.NewRegistry()

	p := &PrometheusStats{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_gateway_requests_total",
			Help: "Total number of contact submissions by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_gateway_request_duration_seconds",
			Help:    "Contact submission handling duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		p.requestsTotal,
		p.requestDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return p
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := ev.Outcome
	if outcome == "" {
		outcome = "unknown"
	}
	p.requestsTotal.WithLabelValues(outcome).Inc()
	if ev.Duration > 0 {
		p.requestDuration.WithLabelValues(outcome).Observe(ev.Duration.Seconds())
	}
	return nil
}

func (p *PrometheusStats) Registry() *prometheus.Registry { return p.registry }

// Handler serve /metrics a partir do registry próprio.
func (p *PrometheusStats) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
