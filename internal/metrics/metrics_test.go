package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/obras/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/obras/7", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	out := scrape(t, m)
	assert.Contains(t, out, `workcrew_http_requests_total{method="GET",route="/api/obras/:id",status="204"} 1`)
}

func TestBackendGaugeKeepsOneSeries(t *testing.T) {
	m := New()
	m.SetBackend("postgres", false)
	m.SetBackend("memory", true)

	out := scrape(t, m)
	assert.Contains(t, out, `workcrew_storage_backend_info{fallback="true",kind="memory"} 1`)
	assert.NotContains(t, out, `kind="postgres"`)
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ClockEvent("clock_in", "ok")
	m.ClockEvent("clock_in", "conflict")
	m.QRCacheLookup("hit")

	out := scrape(t, m)
	assert.Contains(t, out, `workcrew_clock_events_total{action="clock_in",outcome="conflict"} 1`)
	assert.Contains(t, out, `workcrew_qr_cache_lookups_total{result="hit"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetBackend("memory", false)
		m.ClockEvent("clock_out", "ok")
		m.QRCacheLookup("miss")
	})
}
