package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
)

func TestMetricsExposed(t *testing.T) {
	metrics.ObserveHTTP(http.MethodGet, "GET /jwks", http.StatusOK, time.Now())
	metrics.IncLogin("ok")
	metrics.IncCodeIssued()
	metrics.IncTokenExchange("invalid_grant")
	metrics.IncDecision("approved")
	metrics.ObserveStore("memory", "consume_code", time.Now())

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		`bridge_http_requests_total{method="GET",route="GET /jwks",status="2xx"}`,
		`bridge_logins_total{result="ok"}`,
		`bridge_authorization_codes_issued_total`,
		`bridge_token_exchanges_total{result="invalid_grant"}`,
		`bridge_account_decisions_total{decision="approved"}`,
		`bridge_credential_store_duration_seconds_count{op="consume_code",store="memory"}`,
	} {
		require.True(t, strings.Contains(body, name), name)
	}
}
