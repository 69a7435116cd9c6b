package taskstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts successful store mutations.
	// Labels: kind (created, completed, deleted)
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmaster",
			Subsystem: "taskstore",
			Name:      "mutations_total",
			Help:      "Total number of successful task mutations by kind",
		},
		[]string{"kind"},
	)

	// TasksCurrent is the number of tasks currently held.
	TasksCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "taskmaster",
			Subsystem: "taskstore",
			Name:      "tasks",
			Help:      "Number of tasks currently in the store",
		},
	)
)

// MetricsHook returns a ChangeHook that records mutations in Prometheus.
func MetricsHook() ChangeHook {
	return func(c Change) {
		MutationsTotal.WithLabelValues(string(c.Kind)).Inc()
		switch c.Kind {
		case ChangeCreated:
			TasksCurrent.Inc()
		case ChangeDeleted:
			TasksCurrent.Dec()
		}
	}
}
