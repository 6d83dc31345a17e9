package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// checksTotal counts evaluated transformations.
	// Labels: strategy (full, rollup, snapshot), fulfilled (true, false)
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arx",
		Subsystem: "checker",
		Name:      "checks_total",
		Help:      "Total transformations evaluated by strategy and verdict",
	}, []string{"strategy", "fulfilled"})

	// checkDuration measures one evaluation, memo hits excluded.
	// Labels: strategy
	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "arx",
		Subsystem: "checker",
		Name:      "check_duration_seconds",
		Help:      "Duration of one transformation evaluation",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"strategy"})

	// memoHits counts checks answered by the result memoized on the node.
	memoHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arx",
		Subsystem: "checker",
		Name:      "memo_hits_total",
		Help:      "Total checks answered from the node's memoized result",
	})

	// classesPerCheck tracks the size of the resulting tables.
	classesPerCheck = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arx",
		Subsystem: "checker",
		Name:      "classes",
		Help:      "Equivalence classes per evaluated transformation",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	})

	// workersEngaged tracks how many partitions a parallel transformation used.
	workersEngaged = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arx",
		Subsystem: "transformer",
		Name:      "partitions",
		Help:      "Partitions used by parallel transformations",
		Buckets:   []float64{2, 4, 8, 16, 32, 64},
	})

	// checkErrors counts evaluations aborted by an error.
	checkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arx",
		Subsystem: "checker",
		Name:      "errors_total",
		Help:      "Total evaluations aborted by an error",
	})
)
