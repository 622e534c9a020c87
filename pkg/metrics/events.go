package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics records outbox publishing and consumer handling, keyed by event type.
type EventMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewEventMetrics registers the event metrics under the given component prefix
// (for example "outbox_publish" or "notification_consume").
func NewEventMetrics(reg prometheus.Registerer, component string) *EventMetrics {
	return newLabeledMetrics(reg, component, "event_type")
}

// NewJobMetrics registers maintenance job metrics labeled by job name.
func NewJobMetrics(reg prometheus.Registerer) *EventMetrics {
	return newLabeledMetrics(reg, "maintenance_job", "job")
}

func newLabeledMetrics(reg prometheus.Registerer, component, label string) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	component = normalizeLabel(component)
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    component + "_duration_seconds",
		Help:    "Duration of handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{label})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: component + "_success",
		Help: "Successful runs.",
	}, []string{label})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: component + "_failure",
		Help: "Failed runs.",
	}, []string{label})
	reg.MustRegister(duration, success, failure)
	return &EventMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the handling time for the event type.
func (e *EventMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if e == nil || e.duration == nil {
		return
	}
	e.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the event type.
func (e *EventMetrics) IncSuccess(eventType string) {
	if e == nil || e.success == nil {
		return
	}
	e.success.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure increments the failure counter for the event type.
func (e *EventMetrics) IncFailure(eventType string) {
	if e == nil || e.failure == nil {
		return
	}
	e.failure.WithLabelValues(normalizeLabel(eventType)).Inc()
}
