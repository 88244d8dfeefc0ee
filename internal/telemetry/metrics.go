// Package telemetry exposes the tracker's prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncOperations counts collection sync requests by key and outcome.
	SyncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagetrack_sync_operations_total",
		Help: "Collection sync operations handled by the gateway.",
	}, []string{"key", "outcome"})

	// EvaluatorRuns counts derived-state passes on the server.
	EvaluatorRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagetrack_evaluator_runs_total",
		Help: "Derived-state evaluator passes.",
	})

	// EvaluatorChanges counts passes that actually changed the document.
	EvaluatorChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagetrack_evaluator_changes_total",
		Help: "Evaluator passes that updated derived state.",
	})

	// StoreWrites counts whole-document writes by outcome.
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagetrack_store_writes_total",
		Help: "Whole-document store writes.",
	}, []string{"outcome"})
)
