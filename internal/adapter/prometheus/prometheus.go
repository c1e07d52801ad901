package prometheus

import (
	"strconv"
	"time"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusAdapter struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	lifecycleEvents *prometheus.CounterVec
	wearStatuses    *prometheus.CounterVec
}

// NewPrometheusAdapter registers on the default registry.
func NewPrometheusAdapter() *PrometheusAdapter {
	return NewPrometheusAdapterWithRegistry(prometheus.DefaultRegisterer)
}

func NewPrometheusAdapterWithRegistry(reg prometheus.Registerer) *PrometheusAdapter {
	a := &PrometheusAdapter{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "component_service",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "component_service",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		lifecycleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "component_service",
			Name:      "lifecycle_events_total",
			Help:      "Committed component lifecycle events by type.",
		}, []string{"event_type"}),
		wearStatuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "component_service",
			Name:      "wear_classifications_total",
			Help:      "Wear classifications served by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(a.requestDuration, a.requestsTotal, a.lifecycleEvents, a.wearStatuses)
	return a
}

func (a *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())

	a.requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	a.requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
}

func (a *PrometheusAdapter) RecordLifecycleEvent(eventType domain.EventType) {
	a.lifecycleEvents.WithLabelValues(string(eventType)).Inc()
}

func (a *PrometheusAdapter) RecordWearStatus(status domain.WearStatus) {
	a.wearStatuses.WithLabelValues(string(status)).Inc()
}
