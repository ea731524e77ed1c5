// Package metricsvc counts guard and rate limiter decisions for prometheus.
package metricsvc

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "edusphere"

// Guard decisions.
const (
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionCrossTenant     = "cross_tenant"
	DecisionThrottled       = "throttled"
)

type Metrics struct {
	guardDecisions     *prometheus.CounterVec
	rateLimitDecisions *prometheus.CounterVec
}

// New registers the counters on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Number of request guard decisions by outcome.",
		}, []string{"decision"}),
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Number of rate limiter decisions by policy and outcome.",
		}, []string{"policy", "decision"}),
	}
	if reg != nil {
		reg.MustRegister(m.guardDecisions, m.rateLimitDecisions)
	}
	return m
}

func (m *Metrics) ObserveGuard(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveRateLimit(policy string, allowed bool) {
	if m == nil {
		return
	}
	decision := DecisionAllowed
	if !allowed {
		decision = DecisionThrottled
	}
	m.rateLimitDecisions.WithLabelValues(policy, decision).Inc()
}
