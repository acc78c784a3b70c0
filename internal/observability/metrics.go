package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hostelcare"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	ErrorCounter    *prometheus.CounterVec

	ComplaintsCreated *prometheus.CounterVec
	StatusChanges     *prometheus.CounterVec
	AuthOutcomes      *prometheus.CounterVec
	Registrations     *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path"},
		),
		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API responses with status >= 400",
			},
			[]string{"method", "path", "status"},
		),
		ComplaintsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "complaints_created_total",
				Help:      "Total number of complaints filed",
			},
			[]string{"category", "priority"},
		),
		StatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "complaint_status_changes_total",
				Help:      "Total number of complaint status transitions",
			},
			[]string{"from", "to"},
		),
		AuthOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_outcomes_total",
				Help:      "Authentication gate results",
			},
			[]string{"outcome"},
		),
		Registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of self-registrations",
			},
			[]string{"role", "method"},
		),
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.RequestCounter.WithLabelValues(method, path).Inc()
	m.RequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	if status >= 400 {
		m.ErrorCounter.WithLabelValues(method, path, code).Inc()
	}
}

// ComplaintCreated counts a filed complaint
func (m *Metrics) ComplaintCreated(category, priority string) {
	if m == nil {
		return
	}
	m.ComplaintsCreated.WithLabelValues(category, priority).Inc()
}

// StatusChanged counts a complaint status transition
func (m *Metrics) StatusChanged(from, to string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(from, to).Inc()
}

// AuthOutcome counts an authentication gate result
func (m *Metrics) AuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(outcome).Inc()
}

// Registered counts a self-registration
func (m *Metrics) Registered(role, method string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(role, method).Inc()
}
