package lattice

import (
	"fmt"
	"sync"
)

// Space interns transformations of a lattice with fixed per-column heights.
type Space struct {
	maxLevels []int

	mu    sync.Mutex
	nodes map[string]*Transformation
}

// NewSpace creates a space where column i ranges over levels 0..maxLevels[i].
func NewSpace(maxLevels []int) (*Space, error) {
	if len(maxLevels) == 0 {
		return nil, ErrEmptyLattice
	}
	m := make([]int, len(maxLevels))
	for i, l := range maxLevels {
		if l < 0 {
			return nil, fmt.Errorf("column %d height %d: %w", i, l, ErrLevelOutOfRange)
		}
		m[i] = l
	}
	return &Space{maxLevels: m, nodes: make(map[string]*Transformation)}, nil
}

// Dimensions returns the number of columns.
func (s *Space) Dimensions() int { return len(s.maxLevels) }

// MaxLevels returns the per-column heights. Callers must not modify it.
func (s *Space) MaxLevels() []int { return s.maxLevels }

// Size returns the total number of nodes in the lattice.
func (s *Space) Size() int {
	n := 1
	for _, l := range s.maxLevels {
		n *= l + 1
	}
	return n
}

// Get returns the interned node for levels, creating it on first use.
func (s *Space) Get(levels []int) (*Transformation, error) {
	if len(levels) != len(s.maxLevels) {
		return nil, fmt.Errorf("got %d levels, want %d: %w", len(levels), len(s.maxLevels), ErrDimensionMismatch)
	}
	for i, l := range levels {
		if l < 0 || l > s.maxLevels[i] {
			return nil, fmt.Errorf("column %d level %d (max %d): %w", i, l, s.maxLevels[i], ErrLevelOutOfRange)
		}
	}

	key := keyOf(levels)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.nodes[key]; ok {
		return t, nil
	}
	t := New(levels)
	s.nodes[key] = t
	return t, nil
}

// Bottom returns the ungeneralized node.
func (s *Space) Bottom() *Transformation {
	t, _ := s.Get(make([]int, len(s.maxLevels)))
	return t
}

// Top returns the fully generalized node.
func (s *Space) Top() *Transformation {
	t, _ := s.Get(s.maxLevels)
	return t
}

// Reset drops all interned nodes and their memoized results.
func (s *Space) Reset() {
	s.mu.Lock()
	s.nodes = make(map[string]*Transformation)
	s.mu.Unlock()
}
