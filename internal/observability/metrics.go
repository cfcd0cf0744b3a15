// Package observability exposes Prometheus counters for the clinic functions.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dentalcare"

// Metrics implements usecase.Recorder on a Prometheus registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests     *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	captcha      *prometheus.CounterVec
	emailsSent   *prometheus.CounterVec
	chatUpstream *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg. A nil reg gets a fresh private
// registry, which is what the Lambda binaries use.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by function and terminal outcome.",
		}, []string{"function", "outcome"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by a rate limit policy.",
		}, []string{"policy"}),
		captcha: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captcha_verifications_total",
			Help:      "CAPTCHA checks by result (passed, failed, missing, skipped).",
		}, []string{"result"}),
		emailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Outbound e-mails by kind and result.",
		}, []string{"kind", "result"}),
		chatUpstream: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_upstream_responses_total",
			Help:      "Chat upstream responses by status class (2xx, 4xx, 5xx, error).",
		}, []string{"status_class"}),
	}
}

func (m *Metrics) Request(function, outcome string) {
	m.requests.WithLabelValues(function, outcome).Inc()
}

func (m *Metrics) RateLimited(policy string) {
	m.rateLimited.WithLabelValues(policy).Inc()
}

func (m *Metrics) Captcha(result string) {
	m.captcha.WithLabelValues(result).Inc()
}

func (m *Metrics) EmailSent(kind, result string) {
	m.emailsSent.WithLabelValues(kind, result).Inc()
}

// ChatUpstream counts one upstream chat response by status class. A zero
// status is a transport failure.
func (m *Metrics) ChatUpstream(status int) {
	m.chatUpstream.WithLabelValues(StatusClass(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// StatusClass buckets an HTTP status for the chat upstream counter. Zero
// means the request never produced a status.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "other"
	}
}
