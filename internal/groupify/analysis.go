package groupify

import (
	"fmt"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// Predicate decides whether one equivalence class satisfies the privacy model.
type Predicate interface {
	Fulfilled(t *lattice.Transformation, c *Class) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(t *lattice.Transformation, c *Class) bool

// Fulfilled calls f.
func (f PredicateFunc) Fulfilled(t *lattice.Transformation, c *Class) bool { return f(t, c) }

// Model is the privacy model evaluated by Analyze.
type Model struct {
	Predicate Predicate
	// MaxOutliers is the number of rows that may be suppressed.
	MaxOutliers int
	// MinimalClassSize is the smallest allowed non-suppressed class; 0 disables the check.
	MinimalClassSize int
}

// Analysis is the outcome of the last Analyze call.
type Analysis struct {
	PrivacyModelFulfilled bool
	// MinimalClassSizeFulfilled is nil when no minimal class size is configured.
	MinimalClassSizeFulfilled *bool
	Outliers                  int
	// Complete is false when the analysis stopped at the first proof of failure.
	Complete bool
}

// Analyze evaluates the privacy predicate on every class, marking failing
// classes as suppressed. The model is fulfilled when the suppressed rows stay
// within MaxOutliers. Without forceFullAnalysis the scan stops as soon as the
// limit is exceeded; classes after that point are left unmarked.
func (t *Table) Analyze(node *lattice.Transformation, forceFullAnalysis bool, m Model) (Analysis, error) {
	if m.Predicate == nil {
		return Analysis{}, ErrNoPredicate
	}

	t.outliers = 0
	fulfilled := true
	minimal := true
	complete := true

	for i, c := range t.classes {
		c.Suppressed = !m.Predicate.Fulfilled(node, c)
		if c.Suppressed {
			t.outliers += c.Count
			if t.outliers > m.MaxOutliers {
				fulfilled = false
				if !forceFullAnalysis {
					for _, rest := range t.classes[i+1:] {
						rest.Suppressed = false
					}
					complete = false
					break
				}
			}
			continue
		}
		if m.MinimalClassSize > 0 && c.Count < m.MinimalClassSize {
			minimal = false
		}
	}

	a := Analysis{PrivacyModelFulfilled: fulfilled, Outliers: t.outliers, Complete: complete}
	if m.MinimalClassSize > 0 {
		ok := minimal && complete
		a.MinimalClassSizeFulfilled = &ok
	}
	t.analysis = a
	return a, nil
}

// LastAnalysis returns the result of the last Analyze call.
func (t *Table) LastAnalysis() Analysis { return t.analysis }

// ResetSuppression clears all speculative suppression markings so loss is
// measured on the true, unsuppressed classes.
func (t *Table) ResetSuppression() {
	for _, c := range t.classes {
		c.Suppressed = false
	}
	t.outliers = 0
}

// PerformSuppression overwrites the output rows of every suppressed class
// with codes (one per column). Requires row tracking.
func (t *Table) PerformSuppression(out *dataset.Buffer, codes []int32) error {
	if t.rowClass == nil {
		return ErrRowsNotTracked
	}
	if len(codes) != t.dims {
		return fmt.Errorf("%d suppression codes: %w", len(codes), ErrInvalidKey)
	}
	for row, ci := range t.rowClass {
		if t.classes[ci].Suppressed {
			copy(out.Row(row), codes)
		}
	}
	return nil
}
