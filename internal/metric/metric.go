// Package metric provides reference information loss measures over grouped
// tables.
package metric

import (
	"errors"
	"fmt"

	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// ErrUnknownMetric indicates a metric name that is not supported.
var ErrUnknownMetric = errors.New("metric: unknown metric")

// Discernibility charges every row the size of its class, and suppressed rows
// the size of the whole dataset.
type Discernibility struct{}

// InformationLoss returns the discernibility and the suppression free bound.
func (Discernibility) InformationLoss(t *lattice.Transformation, table *groupify.Table) (float64, float64) {
	rows := float64(table.Rows())
	loss, bound := 0.0, 0.0
	for _, c := range table.Classes() {
		n := float64(c.Count)
		bound += n * n
		if c.Suppressed {
			loss += n * rows
		} else {
			loss += n * n
		}
	}
	return loss, bound
}

// LowerBound ignores suppression.
func (Discernibility) LowerBound(_ *lattice.Transformation, table *groupify.Table) float64 {
	bound := 0.0
	for _, c := range table.Classes() {
		n := float64(c.Count)
		bound += n * n
	}
	return bound
}

// Precision is the mean generalization height of all cells, relative to the
// hierarchy heights. Suppressed cells count as fully generalized.
type Precision struct {
	heights []int
}

// NewPrecision creates the metric for hierarchies of the given heights.
func NewPrecision(heights []int) Precision {
	return Precision{heights: append([]int(nil), heights...)}
}

func (p Precision) cellLoss(t *lattice.Transformation) float64 {
	if len(p.heights) == 0 {
		return 0
	}
	sum := 0.0
	for col, h := range p.heights {
		if h > 0 {
			sum += float64(t.Level(col)) / float64(h)
		}
	}
	return sum / float64(len(p.heights))
}

// InformationLoss returns the precision and the suppression free bound.
func (p Precision) InformationLoss(t *lattice.Transformation, table *groupify.Table) (float64, float64) {
	bound := p.cellLoss(t)
	if table.Rows() == 0 {
		return bound, bound
	}
	suppressed := 0
	for _, c := range table.Classes() {
		if c.Suppressed {
			suppressed += c.Count
		}
	}
	rows := float64(table.Rows())
	s := float64(suppressed)
	return (bound*(rows-s) + s) / rows, bound
}

// LowerBound ignores suppression.
func (p Precision) LowerBound(t *lattice.Transformation, _ *groupify.Table) float64 {
	return p.cellLoss(t)
}

// Metric is implemented by every measure in this package.
type Metric interface {
	InformationLoss(t *lattice.Transformation, table *groupify.Table) (loss, bound float64)
	LowerBound(t *lattice.Transformation, table *groupify.Table) float64
}

// ByName returns the metric configured as name.
func ByName(name string, heights []int) (Metric, error) {
	switch name {
	case "discernibility":
		return Discernibility{}, nil
	case "precision":
		return NewPrecision(heights), nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownMetric)
}
