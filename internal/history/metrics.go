package history

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("arx.history")

var (
	historyHits      metric.Int64Counter
	historyMisses    metric.Int64Counter
	historyStores    metric.Int64Counter
	historySkips     metric.Int64Counter
	historyEvictions metric.Int64Counter
	historyClasses   metric.Int64UpDownCounter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		historyHits, err = meter.Int64Counter(
			"history_hits_total",
			metric.WithDescription("Snapshot lookups that found a snapshot"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		historyMisses, err = meter.Int64Counter(
			"history_misses_total",
			metric.WithDescription("Snapshot lookups that found nothing"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		historyStores, err = meter.Int64Counter(
			"history_stores_total",
			metric.WithDescription("Snapshots stored"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		historySkips, err = meter.Int64Counter(
			"history_skips_total",
			metric.WithDescription("Tables too large to be stored"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		historyEvictions, err = meter.Int64Counter(
			"history_evictions_total",
			metric.WithDescription("Snapshots evicted"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		historyClasses, err = meter.Int64UpDownCounter(
			"history_classes",
			metric.WithDescription("Equivalence classes held by stored snapshots"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordLookup(ctx context.Context, hit bool, kind string) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("lookup", kind))
	if hit {
		historyHits.Add(ctx, 1, attrs)
		return
	}
	historyMisses.Add(ctx, 1, attrs)
}

func recordStore(ctx context.Context, classes int) {
	if err := initMetrics(); err != nil {
		return
	}
	historyStores.Add(ctx, 1)
	historyClasses.Add(ctx, int64(classes))
}

func recordSkip(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	historySkips.Add(ctx, 1)
}

func recordEviction(ctx context.Context, classes int, reason string) {
	if err := initMetrics(); err != nil {
		return
	}
	historyEvictions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	historyClasses.Add(ctx, -int64(classes))
}
