package engine

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// Strategy selects how the next table is built.
type Strategy int

const (
	// StrategyFull scans every input row.
	StrategyFull Strategy = iota
	// StrategyRollup regroups the classes of the previous, less general node.
	StrategyRollup
	// StrategySnapshot restores a stored snapshot.
	StrategySnapshot
)

func (s Strategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyRollup:
		return "rollup"
	case StrategySnapshot:
		return "snapshot"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Plan describes how to evaluate one transformation.
type Plan struct {
	Strategy Strategy
	// Projection marks columns whose level did not change since the previous node.
	Projection *bitset.BitSet
	// Snapshot is set for StrategySnapshot.
	Snapshot *history.Snapshot
}

// StateMachine remembers the last transformation and picks the cheapest
// valid strategy for the next one.
type StateMachine struct {
	dims    int
	history *history.History

	last *lattice.Transformation
	plan *Plan
}

// NewStateMachine creates a machine for transformations of width dims.
func NewStateMachine(dims int, h *history.History) *StateMachine {
	return &StateMachine{dims: dims, history: h}
}

// Transition returns the plan for v and records v as the last transformation.
func (m *StateMachine) Transition(ctx context.Context, v *lattice.Transformation) (*Plan, error) {
	if v.Dimensions() != m.dims {
		return nil, fmt.Errorf("transformation %s has %d levels, want %d: %w",
			v, v.Dimensions(), m.dims, lattice.ErrDimensionMismatch)
	}
	plan := m.next(ctx, v)
	m.last, m.plan = v, plan
	return plan, nil
}

func (m *StateMachine) next(ctx context.Context, v *lattice.Transformation) *Plan {
	prev := m.last
	if prev == nil {
		return &Plan{Strategy: StrategyFull, Projection: lattice.EmptyProjection(m.dims)}
	}

	if snap, ok := m.history.Get(ctx, v); ok {
		return &Plan{Strategy: StrategySnapshot, Projection: m.snapshotProjection(snap, v, prev), Snapshot: snap}
	}

	if v.GeneralizesAtLeast(prev) {
		return &Plan{Strategy: StrategyRollup, Projection: lattice.EqualColumns(v, prev)}
	}

	if snap, ok := m.history.GetAncestor(ctx, v); ok {
		return &Plan{Strategy: StrategySnapshot, Projection: m.snapshotProjection(snap, v, prev), Snapshot: snap}
	}

	return &Plan{Strategy: StrategyFull, Projection: lattice.EmptyProjection(m.dims)}
}

// A snapshot from another branch of the lattice must not be combined with
// skipped columns.
func (m *StateMachine) snapshotProjection(snap *history.Snapshot, v, prev *lattice.Transformation) *bitset.BitSet {
	if snap.Transformation().GeneralizesAtLeast(prev) {
		return lattice.EqualColumns(v, prev)
	}
	return lattice.EmptyProjection(m.dims)
}

// Force records v with a full plan, for evaluations that bypass planning.
func (m *StateMachine) Force(v *lattice.Transformation) *Plan {
	m.last = v
	m.plan = &Plan{Strategy: StrategyFull, Projection: lattice.EmptyProjection(m.dims)}
	return m.plan
}

// Last returns the last transformation, or nil.
func (m *StateMachine) Last() *lattice.Transformation { return m.last }

// LastPlan returns the last plan, or nil.
func (m *StateMachine) LastPlan() *Plan { return m.plan }

// Reset forgets the last transformation.
func (m *StateMachine) Reset() {
	m.last = nil
	m.plan = nil
}
