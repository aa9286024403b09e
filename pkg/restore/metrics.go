package restore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docgen",
		Subsystem: "restore",
		Name:      "restores_total",
		Help:      "Restores by source and outcome (applied, failed, discarded).",
	}, []string{"source", "outcome"})

	restoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docgen",
		Subsystem: "restore",
		Name:      "apply_duration_seconds",
		Help:      "Time spent resolving a saved payload against live data.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"source"})

	gatedSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docgen",
		Subsystem: "restore",
		Name:      "gated_saves_total",
		Help:      "Section saves suppressed because the section was not ready.",
	})

	slotSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "docgen",
		Subsystem: "session_slot",
		Name:      "saves_total",
		Help:      "Session slot writes that reached the store.",
	})

	slotStorageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docgen",
		Subsystem: "session_slot",
		Name:      "storage_failures_total",
		Help:      "Swallowed session slot storage failures by operation.",
	}, []string{"op"})
)
