package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	MissionsCreated   prometheus.Counter
	ActivitiesCreated prometheus.Counter
	UpstreamFailures  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetrack_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spacetrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		MissionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "spacetrack_missions_created_total",
			Help: "Total number of missions created",
		}),
		ActivitiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "spacetrack_activities_created_total",
			Help: "Total number of activities created",
		}),
		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetrack_upstream_failures_total",
			Help: "Total number of failed calls to NASA and ISS data sources",
		}, []string{"source"}),
	}
}

// ObserveRequest records one served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementMissionsCreated() {
	if m == nil {
		return
	}
	m.MissionsCreated.Inc()
}

func (m *Metrics) IncrementActivitiesCreated() {
	if m == nil {
		return
	}
	m.ActivitiesCreated.Inc()
}

func (m *Metrics) IncrementUpstreamFailure(source string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(source).Inc()
}
