package upstream

import "github.com/prometheus/client_golang/prometheus"

type clientMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
}

func newClientMetrics() *clientMetrics {
	return &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_upstream_requests_total",
			Help: "Upstream API calls by method and outcome.",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rm_upstream_request_duration_seconds",
			Help:    "Upstream API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rm_upstream_token_refresh_total",
			Help: "Access token refresh attempts by result.",
		}, []string{"result"}),
	}
}

func (m *clientMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.refreshes}
}
