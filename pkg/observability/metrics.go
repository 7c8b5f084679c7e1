package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics bundles the collectors tracking webhook verification and
// forwarding health.
type GatewayMetrics struct {
	requests         *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	candidateMatches *prometheus.CounterVec
	forwardLatency   prometheus.Histogram
	forwardErrors    *prometheus.CounterVec
}

var (
	gatewayOnce sync.Once
	gatewayReg  *GatewayMetrics
)

// Gateway returns the lazily-initialised metrics registry for the webhook
// gateway.
func Gateway() *GatewayMetrics {
	gatewayOnce.Do(func() {
		gatewayReg = &GatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "teams_gateway",
				Subsystem: "webhook",
				Name:      "requests_total",
				Help:      "Total webhook requests segmented by verification outcome.",
			}, []string{"outcome"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "teams_gateway",
				Subsystem: "webhook",
				Name:      "rejections_total",
				Help:      "Count of rejected webhook requests segmented by rejection reason.",
			}, []string{"reason"}),
			candidateMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "teams_gateway",
				Subsystem: "webhook",
				Name:      "candidate_matches_total",
				Help:      "Count of successful verifications segmented by the matched signing-input candidate.",
			}, []string{"candidate"}),
			forwardLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "teams_gateway",
				Subsystem: "sfmc",
				Name:      "forward_duration_seconds",
				Help:      "Latency distribution for forwarding events to Marketing Cloud.",
				Buckets:   prometheus.DefBuckets,
			}),
			forwardErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "teams_gateway",
				Subsystem: "sfmc",
				Name:      "forward_errors_total",
				Help:      "Count of failed forwarding attempts segmented by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			gatewayReg.requests,
			gatewayReg.rejections,
			gatewayReg.candidateMatches,
			gatewayReg.forwardLatency,
			gatewayReg.forwardErrors,
		)
	})
	return gatewayReg
}

// ObserveVerification records the outcome of one verification call.
func (m *GatewayMetrics) ObserveVerification(matched bool, candidate, reason string) {
	if m == nil {
		return
	}
	if matched {
		m.requests.WithLabelValues("verified").Inc()
		if candidate == "" {
			candidate = "unknown"
		}
		m.candidateMatches.WithLabelValues(candidate).Inc()
		return
	}
	m.requests.WithLabelValues("rejected").Inc()
	if reason == "" {
		reason = "unspecified"
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// ObserveForward records the duration and result of one forwarding attempt.
func (m *GatewayMetrics) ObserveForward(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.forwardLatency.Observe(duration.Seconds())
	if err != nil {
		reason := strings.TrimSpace(err.Error())
		if reason == "" {
			reason = "unknown"
		}
		m.forwardErrors.WithLabelValues(reason).Inc()
	}
}
