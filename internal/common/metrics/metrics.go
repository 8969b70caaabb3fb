// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_sessions_started_total",
			Help: "Total number of assessment sessions created",
		},
	)

	SessionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_finished_total",
			Help: "Total number of assessment sessions per terminal outcome",
		},
		[]string{"outcome"},
	)

	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_transitions_total",
			Help: "Total number of state machine transitions applied",
		},
		[]string{"transition", "result"},
	)

	DispatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_dispatch_attempts_total",
			Help: "Total number of summary dispatch attempts per stage outcome",
		},
		[]string{"stage", "result"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "assessment_dispatch_duration_seconds",
			Help: "Duration of the render-then-deliver dispatch in seconds",
		},
	)
)
