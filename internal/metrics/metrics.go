// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anycrm"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	enrichmentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "requests_total",
			Help:      "Enrichment requests by outcome.",
		},
		[]string{"result"},
	)

	webhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "webhooks_received_total",
			Help:      "Agent callbacks received by event type.",
		},
		[]string{"event_type"},
	)

	openChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "open_channels",
			Help:      "Currently open notification channels.",
		},
	)

	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		enrichmentRequests,
		webhooksReceived,
		openChannels,
		deliveries,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request. route is the matched route pattern.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// RecordEnrichment counts an enrichment request outcome such as "ok",
// "not_configured", "not_found" or "upstream_error".
func RecordEnrichment(result string) {
	enrichmentRequests.WithLabelValues(result).Inc()
}

// RecordWebhook counts an agent callback. Event types other than "response"
// share the "other" label since the header is caller-controlled.
func RecordWebhook(eventType string) {
	switch eventType {
	case "", "response":
		eventType = "response"
	default:
		eventType = "other"
	}
	webhooksReceived.WithLabelValues(eventType).Inc()
}

// ChannelOpened and ChannelClosed track live notification channels.
func ChannelOpened() { openChannels.Inc() }

// ChannelClosed decrements the open channel gauge.
func ChannelClosed() { openChannels.Dec() }

// RecordDelivery counts a notification push; ok reports whether it succeeded.
func RecordDelivery(ok bool) {
	if ok {
		deliveries.WithLabelValues("ok").Inc()
		return
	}
	deliveries.WithLabelValues("error").Inc()
}
