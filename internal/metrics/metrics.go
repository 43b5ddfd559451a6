package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	AuthzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Name:      "authz_denials_total",
		Help:      "Authorization denials by resource kind and action.",
	}, []string{"kind", "action"})

	FlagEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Name:      "flag_evaluations_total",
		Help:      "Feature flag evaluations by flag name and result.",
	}, []string{"flag", "result"})

	FlagCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Name:      "flag_cache_total",
		Help:      "Flag cache lookups by outcome.",
	}, []string{"outcome"})
)
