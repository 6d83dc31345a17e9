// Package privacy provides reference privacy criteria evaluated per
// equivalence class.
package privacy

import (
	"fmt"
	"math"

	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// KAnonymity requires every class to hold at least K rows.
type KAnonymity struct {
	K int
}

// NewKAnonymity validates k.
func NewKAnonymity(k int) (KAnonymity, error) {
	if k < 1 {
		return KAnonymity{}, fmt.Errorf("k=%d: %w", k, ErrInvalidParameter)
	}
	return KAnonymity{K: k}, nil
}

// Fulfilled implements groupify.Predicate.
func (p KAnonymity) Fulfilled(_ *lattice.Transformation, c *groupify.Class) bool {
	return c.Count >= p.K
}

// DistinctLDiversity requires at least L distinct values of an analyzed column per class.
type DistinctLDiversity struct {
	L      int
	Column int
}

// NewDistinctLDiversity validates l.
func NewDistinctLDiversity(l, column int) (DistinctLDiversity, error) {
	if l < 1 || column < 0 {
		return DistinctLDiversity{}, fmt.Errorf("l=%d column=%d: %w", l, column, ErrInvalidParameter)
	}
	return DistinctLDiversity{L: l, Column: column}, nil
}

// Fulfilled implements groupify.Predicate.
func (p DistinctLDiversity) Fulfilled(_ *lattice.Transformation, c *groupify.Class) bool {
	if p.Column >= len(c.Distributions) {
		return false
	}
	return c.Distributions[p.Column].Len() >= p.L
}

// EntropyLDiversity requires the entropy of an analyzed column to be at least log(L) per class.
type EntropyLDiversity struct {
	L      float64
	Column int
}

// NewEntropyLDiversity validates l.
func NewEntropyLDiversity(l float64, column int) (EntropyLDiversity, error) {
	if l < 1 || column < 0 {
		return EntropyLDiversity{}, fmt.Errorf("l=%g column=%d: %w", l, column, ErrInvalidParameter)
	}
	return EntropyLDiversity{L: l, Column: column}, nil
}

// Fulfilled implements groupify.Predicate.
func (p EntropyLDiversity) Fulfilled(_ *lattice.Transformation, c *groupify.Class) bool {
	if p.Column >= len(c.Distributions) {
		return false
	}
	d := c.Distributions[p.Column]
	total := float64(d.Total())
	if total == 0 {
		return false
	}
	entropy := 0.0
	for _, f := range d.Frequencies() {
		if f > 0 {
			q := float64(f) / total
			entropy -= q * math.Log(q)
		}
	}
	// tolerate rounding at the boundary
	return entropy >= math.Log(p.L)-1e-9
}

// All is fulfilled when every criterion is.
type All []groupify.Predicate

// Fulfilled implements groupify.Predicate.
func (a All) Fulfilled(t *lattice.Transformation, c *groupify.Class) bool {
	for _, p := range a {
		if !p.Fulfilled(t, c) {
			return false
		}
	}
	return true
}

// Criterion describes one criterion in configuration.
type Criterion struct {
	Name   string  `yaml:"name" json:"name" validate:"required,oneof=k-anonymity distinct-l-diversity entropy-l-diversity"`
	K      int     `yaml:"k,omitempty" json:"k,omitempty"`
	L      float64 `yaml:"l,omitempty" json:"l,omitempty"`
	Column string  `yaml:"column,omitempty" json:"column,omitempty"`
}

// Build turns criteria into one predicate. column resolves analyzed column names.
func Build(criteria []Criterion, column func(name string) (int, bool)) (groupify.Predicate, error) {
	all := make(All, 0, len(criteria))
	for _, c := range criteria {
		var (
			p   groupify.Predicate
			err error
		)
		switch c.Name {
		case "k-anonymity":
			p, err = NewKAnonymity(c.K)
		case "distinct-l-diversity", "entropy-l-diversity":
			idx, ok := column(c.Column)
			if !ok {
				return nil, fmt.Errorf("%s on %q: %w", c.Name, c.Column, ErrInvalidParameter)
			}
			if c.Name == "distinct-l-diversity" {
				p, err = NewDistinctLDiversity(int(c.L), idx)
			} else {
				p, err = NewEntropyLDiversity(c.L, idx)
			}
		default:
			return nil, fmt.Errorf("%q: %w", c.Name, ErrUnknownCriterion)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return all, nil
}
