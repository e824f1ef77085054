package producer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the producer's Prometheus collector set.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
}

// NewMetrics builds a Metrics and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "knative_http",
			Subsystem: "producer",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound CloudEvent HTTP requests, labeled by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requestDuration)
	return m
}

func (p *Producer) beginTimer() time.Time {
	return time.Now()
}

func (p *Producer) observe(start time.Time, ok bool) {
	if p.cfg.Metrics == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	p.cfg.Metrics.requestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
