package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records payment confirmation and order lifecycle outcomes.
type CheckoutMetrics struct {
	confirmDuration *prometheus.HistogramVec
	attempts        *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	confirmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_confirm_duration_seconds",
		Help:    "Duration of payment confirmation calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by payment method and outcome.",
	}, []string{"method", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by target status and actor.",
	}, []string{"status", "actor"})
	reg.MustRegister(confirmDuration, attempts, transitions)
	return &CheckoutMetrics{
		confirmDuration: confirmDuration,
		attempts:        attempts,
		transitions:     transitions,
	}
}

// ObserveConfirmDuration records how long a provider confirmation took.
func (c *CheckoutMetrics) ObserveConfirmDuration(method string, duration time.Duration) {
	if c == nil || c.confirmDuration == nil {
		return
	}
	c.confirmDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncAttempt increments the attempt counter for a method/outcome pair.
func (c *CheckoutMetrics) IncAttempt(method, outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// IncTransition increments the transition counter for a status/actor pair.
func (c *CheckoutMetrics) IncTransition(status, actor string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(status), normalizeLabel(actor)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
