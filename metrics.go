package acp

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsCollector instruments the dispatch path with prometheus metrics.
// It is nil by default (see WithMetrics); a connection with no collector
// configured pays no instrumentation cost.
type metricsCollector struct {
	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// NewMetricsCollector registers the acp_* metric family on reg. Pass
// prometheus.DefaultRegisterer to publish on the process-wide default
// registry, or a private *prometheus.Registry in tests.
func NewMetricsCollector(reg prometheus.Registerer) *metricsCollector {
	factory := promauto.With(reg)
	return &metricsCollector{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acp_requests_total",
			Help: "Incoming requests dispatched, by method.",
		}, []string{"method"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acp_errors_total",
			Help: "Incoming requests that resolved to an error, by method and code.",
		}, []string{"method", "code"}),
	}
}

func (m *metricsCollector) observeRequest(method string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method).Inc()
}

func (m *metricsCollector) observeError(method string, code int) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
