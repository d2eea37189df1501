// Package metrics provides Prometheus instrumentation for the NIM proxy.
//
// Metrics:
//   - nimproxy_requests_total: completed inbound requests by model, mode, status
//   - nimproxy_upstream_errors_total: upstream failures by status code
//   - nimproxy_upstream_duration_seconds: upstream call latency histogram
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request handling modes, used as the "mode" label value.
const (
	ModeSync   = "sync"
	ModeStream = "stream"
)

// Collector owns the proxy's Prometheus registry and collectors.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	upstreamErrors   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the proxy metrics on a dedicated
// registry, alongside the standard Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nimproxy",
				Name:      "requests_total",
				Help:      "Total number of completed chat-completion requests",
			},
			[]string{"model", "mode", "status"},
		),

		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nimproxy",
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream call failures",
			},
			[]string{"status"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nimproxy",
				Name:      "upstream_duration_seconds",
				Help:      "Duration of upstream NIM calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model", "mode"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requestsTotal,
		c.upstreamErrors,
		c.upstreamDuration,
	)

	return c
}

// ObserveRequest records one completed inbound request.
func (c *Collector) ObserveRequest(model, mode string, status int) {
	c.requestsTotal.WithLabelValues(model, mode, strconv.Itoa(status)).Inc()
}

// ObserveUpstreamError records one upstream call failure.
func (c *Collector) ObserveUpstreamError(status int) {
	c.upstreamErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveUpstreamDuration records the latency of one upstream call.
func (c *Collector) ObserveUpstreamDuration(model, mode string, d time.Duration) {
	c.upstreamDuration.WithLabelValues(model, mode).Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
