// Package metrics exposes Prometheus collectors for the HTTP layer, the
// selected storage backend and the clock-in/out flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workcrew"

// Metrics owns a private registry. All recording methods are safe on a nil
// receiver so services can run without metrics in tests.
type Metrics struct {
	registry   *prometheus.Registry
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   prometheus.Gauge
	backend    *prometheus.GaugeVec
	clockCnt   *prometheus.CounterVec
	qrCache    *prometheus.CounterVec
}

func New() *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route"})
	httpInfl := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_inflight"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	backend := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "storage_backend_info",
		Help:      "Storage backend selected at startup (value is always 1).",
	}, []string{"kind", "fallback"})
	clockCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "clock_events_total"}, []string{"action", "outcome"})
	qrCache := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "qr_cache_lookups_total"}, []string{"result"})
	r.MustRegister(backend, clockCnt, qrCache)

	return &Metrics{
		registry:   r,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		backend:    backend,
		clockCnt:   clockCnt,
		qrCache:    qrCache,
	}
}

// SetBackend records the backend chosen at startup.
func (m *Metrics) SetBackend(kind string, fellBack bool) {
	if m == nil {
		return
	}
	m.backend.Reset()
	m.backend.WithLabelValues(kind, strconv.FormatBool(fellBack)).Set(1)
}

// ClockEvent counts a clock-in or clock-out attempt by outcome
// ("ok", "conflict", "error").
func (m *Metrics) ClockEvent(action, outcome string) {
	if m == nil {
		return
	}
	m.clockCnt.WithLabelValues(action, outcome).Inc()
}

// QRCacheLookup counts QR token cache lookups ("hit", "miss", "error").
func (m *Metrics) QRCacheLookup(result string) {
	if m == nil {
		return
	}
	m.qrCache.WithLabelValues(result).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.Inc()
		start := time.Now()
		c.Next()
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.httpInfl.Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
