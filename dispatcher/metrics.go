package dispatcher

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the dispatcher's Prometheus collector set: ambient
// observability, not routing/matching/reply behaviour. A Dispatcher with
// a nil Metrics simply skips instrumentation.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	decodeErrorTotal prometheus.Counter
	deliveryDuration prometheus.Histogram
}

// NewMetrics builds a Metrics and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "knative_http",
			Subsystem: "dispatcher",
			Name:      "requests_total",
			Help:      "Inbound requests handled, labeled by response status class.",
		}, []string{"status"}),
		decodeErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knative_http",
			Subsystem: "dispatcher",
			Name:      "decode_errors_total",
			Help:      "Inbound requests that failed CloudEvent decoding.",
		}),
		deliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "knative_http",
			Subsystem: "dispatcher",
			Name:      "delivery_duration_seconds",
			Help:      "End-to-end duration of handling one inbound request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.requestsTotal, m.decodeErrorTotal, m.deliveryDuration)
	return m
}

func (d *Dispatcher) observe(status int, elapsed time.Duration) {
	if d.cfg.Metrics == nil {
		return
	}
	d.cfg.Metrics.requestsTotal.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
	d.cfg.Metrics.deliveryDuration.Observe(elapsed.Seconds())
}

func (d *Dispatcher) incDecodeError() {
	if d.cfg.Metrics == nil {
		return
	}
	d.cfg.Metrics.decodeErrorTotal.Inc()
}
