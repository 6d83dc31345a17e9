package config

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/engine"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/metric"
	"github.com/arx-deidentifier/arx-sub007/internal/privacy"
)

var aggregates = map[string]groupify.AggregateFunc{
	"mean":   groupify.Mean,
	"median": groupify.Median,
	"mode":   groupify.Mode,
}

// CheckerOptions resolves the configured model, metric and column names
// against data.
func (c Config) CheckerOptions(data *dataset.Dataset, logger *slog.Logger) (engine.Options, error) {
	predicate, err := privacy.Build(c.Privacy.Criteria, data.AnalyzedIndex)
	if err != nil {
		return engine.Options{}, err
	}
	m, err := metric.ByName(c.Metric, data.MaxLevels())
	if err != nil {
		return engine.Options{}, err
	}

	micro := make([]groupify.Microaggregation, 0, len(c.Checker.Microaggregation))
	for _, mc := range c.Checker.Microaggregation {
		col, ok := data.AnalyzedIndex(mc.Column)
		if !ok {
			return engine.Options{}, fmt.Errorf("microaggregation of %q: %w", mc.Column, ErrUnknownColumn)
		}
		fn, ok := aggregates[mc.Function]
		if !ok {
			return engine.Options{}, fmt.Errorf("%q: %w", mc.Function, ErrUnknownFunction)
		}
		micro = append(micro, groupify.Microaggregation{Column: col, Function: fn})
	}

	return engine.Options{
		Model: groupify.Model{
			Predicate:        predicate,
			MaxOutliers:      int(math.Floor(c.Privacy.SuppressionLimit * float64(data.Rows()))),
			MinimalClassSize: c.Privacy.MinimalClassSize,
		},
		Metric:                   m,
		SuppressionAlwaysEnabled: c.Privacy.SuppressionAlwaysEnabled,
		History:                  c.History,
		Trigger:                  c.Checker.Trigger,
		Transformer:              c.Checker.Transformer,
		Table: groupify.Config{
			LoadFactor:      c.Checker.LoadFactor,
			InitialCapacity: c.Checker.InitialCapacity,
		},
		Microaggregation: micro,
		Logger:           logger,
	}, nil
}
