// Package metrics exposes power controller activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/nodepower/internal/power"
)

const namespace = "nodepower"

// Metrics implements power.Recorder on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	nodeEnabled *prometheus.GaugeVec
	errors      *prometheus.CounterVec
}

// New creates the metric set. Process and Go runtime collectors are
// registered alongside.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Power operations by result",
		}, []string{"operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Power operation latency, including settle and reset delays",
			Buckets:   []float64{0.01, 0.1, 0.2, 0.5, 1, 1.5, 2, 5},
		}, []string{"operation"}),
		nodeEnabled: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "enabled",
			Help:      "Last level driven on the node enable line (1 on, 0 off)",
		}, []string{"node"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed power operations by error code",
		}, []string{"code"}),
	}
	return m
}

// ObserveOperation records one controller call.
func (m *Metrics) ObserveOperation(op string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
		code := string(power.CodeOf(err))
		if code == "" {
			code = "OTHER"
		}
		m.errors.WithLabelValues(code).Inc()
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveNode records the level driven on a node's enable line.
func (m *Metrics) ObserveNode(node power.NodeID, on bool) {
	v := 0.0
	if on {
		v = 1
	}
	m.nodeEnabled.WithLabelValues(node.String()).Set(v)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ power.Recorder = (*Metrics)(nil)
