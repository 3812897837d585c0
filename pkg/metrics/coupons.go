package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CouponMetrics tracks remote coupon validation calls.
type CouponMetrics struct {
	outcomes *prometheus.CounterVec
	latency  prometheus.Histogram
}

func NewCouponMetrics(reg prometheus.Registerer) *CouponMetrics {
	if reg == nil {
		return &CouponMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_validations_total",
		Help:      "Coupon validations by outcome (applied, rejected, transient, stale).",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "coupon_validation_duration_seconds",
		Help:      "Latency of the remote coupon validation call.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	reg.MustRegister(outcomes, latency)
	return &CouponMetrics{outcomes: outcomes, latency: latency}
}

func (c *CouponMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	if c.latency != nil && duration > 0 {
		c.latency.Observe(duration.Seconds())
	}
}
