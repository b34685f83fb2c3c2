package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treegar_api_requests_total",
			Help: "Admin API round trips by method and status class",
		},
		[]string{"method", "code"}, // GET|POST|... , 2xx|4xx|5xx|error
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treegar_api_request_duration_seconds",
			Help:    "Admin API round trip latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treegar_query_cache_total",
			Help: "List query cache outcomes by resource",
		},
		[]string{"resource", "outcome"}, // hit|stale|miss|dedup|retry|error|invalidate
	)

	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treegar_audit_events_total",
			Help: "Audit events by sink and result",
		},
		[]string{"sink", "result"}, // log|kafka|sql , ok|failed
	)

	MockRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treegar_mock_requests_total",
			Help: "Requests served by the mock Admin API",
		},
		[]string{"route", "code"},
	)
)

// MustRegister registers all collectors; collectors already present on r are skipped.
func MustRegister(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		APIRequestsTotal,
		APIRequestDuration,
		QueryCacheTotal,
		AuditEventsTotal,
		MockRequestsTotal,
	} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}
