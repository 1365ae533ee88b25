package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: latencyBuckets,
	}, []string{"method", "route"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_logins_total",
		Help: "Wallet logins by outcome",
	}, []string{"result"})

	codesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_authorization_codes_issued_total",
		Help: "Authorization codes issued to approved accounts",
	})

	tokenExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_token_exchanges_total",
		Help: "Token endpoint exchanges by wire result code",
	}, []string{"result"})

	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_account_decisions_total",
		Help: "Administrator approval decisions",
	}, []string{"decision"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_credential_store_duration_seconds",
		Help:    "Latency of credential store operations",
		Buckets: latencyBuckets,
	}, []string{"store", "op"})
)

// ObserveHTTP records one served request
func ObserveHTTP(method, route string, status int, start time.Time) {
	httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// IncLogin records a login outcome ("ok", "invalid_identity", "error")
func IncLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

func IncCodeIssued() {
	codesIssued.Inc()
}

// IncTokenExchange records a token endpoint result ("ok" or an OAuth error code)
func IncTokenExchange(result string) {
	tokenExchanges.WithLabelValues(result).Inc()
}

func IncDecision(decision string) {
	decisions.WithLabelValues(decision).Inc()
}

// ObserveStore records a credential store operation started at start
func ObserveStore(store, op string, start time.Time) {
	storeDuration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
