package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead intake flow.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	emailsTotal      *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	rateLimitedTotal prometheus.Counter
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skolarrs",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead form submissions by outcome and trigger source",
		}, []string{"outcome", "source"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skolarrs",
			Subsystem: "leads",
			Name:      "emails_total",
			Help:      "Lead emails dispatched by kind and status",
		}, []string{"kind", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skolarrs",
			Subsystem: "leads",
			Name:      "email_dispatch_seconds",
			Help:      "Latency of a single email provider call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skolarrs",
			Subsystem: "leads",
			Name:      "rate_limited_total",
			Help:      "Lead submissions rejected by the rate limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.emailsTotal, m.dispatchLatency, m.rateLimitedTotal)
	return m
}

// ObserveSubmission counts one intake request. Source is folded to a small
// set so arbitrary client-supplied labels cannot blow up cardinality.
func (m *LeadMetrics) ObserveSubmission(outcome, source string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome, sourceLabel(source)).Inc()
}

func (m *LeadMetrics) ObserveEmail(kind, status string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(kind, status).Inc()
}

func (m *LeadMetrics) ObserveDispatchLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *LeadMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

func sourceLabel(source string) string {
	switch source {
	case "":
		return "none"
	case "Website", "Auto Prompt":
		return source
	default:
		return "trigger"
	}
}
