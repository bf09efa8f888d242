package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcome of checkout attempts.
type CheckoutMetrics struct {
	duration prometheus.Histogram
	success  prometheus.Counter
	failure  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_success_total",
		Help: "Completed checkouts.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure_total",
		Help: "Failed checkouts by step.",
	}, []string{"step"})
	reg.MustRegister(duration, success, failure)
	return &CheckoutMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(duration.Seconds())
}

// IncSuccess counts a completed checkout.
func (c *CheckoutMetrics) IncSuccess() {
	if c == nil || c.success == nil {
		return
	}
	c.success.Inc()
}

// IncFailure counts a failed checkout at the named step.
func (c *CheckoutMetrics) IncFailure(step string) {
	if c == nil || c.failure == nil {
		return
	}
	if step == "" {
		step = "unknown"
	}
	c.failure.WithLabelValues(step).Inc()
}
