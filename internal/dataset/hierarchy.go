package dataset

import "fmt"

// Hierarchy maps a raw code and a level to the generalized code at that level.
// table[raw][0] is the raw code itself.
type Hierarchy struct {
	table  [][]int32
	height int
}

// NewHierarchy builds a hierarchy from rows of strings, one row per raw value:
// row[0] is the raw value, row[l] its generalization at level l. Every string
// is registered in dict, so generalized values share the column's code space.
func NewHierarchy(rows [][]string, dict *Dictionary) (*Hierarchy, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyHierarchy
	}
	width := len(rows[0])
	if width == 0 {
		return nil, ErrEmptyHierarchy
	}

	// Raw values first so their codes stay stable for already encoded data.
	for _, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("hierarchy row %q has %d levels, want %d: %w", r, len(r), width, ErrNonRectangular)
		}
		dict.Register(r[0])
	}

	h := &Hierarchy{height: width - 1}
	for _, r := range rows {
		raw, _ := dict.Code(r[0])
		codes := make([]int32, width)
		for l, v := range r {
			codes[l] = dict.Register(v)
		}
		if int(raw) >= len(h.table) {
			grown := make([][]int32, dict.Len())
			copy(grown, h.table)
			h.table = grown
		}
		h.table[raw] = codes
	}
	return h, nil
}

// HierarchyFromTable wraps an already encoded table indexed by raw code.
func HierarchyFromTable(table [][]int32) (*Hierarchy, error) {
	if len(table) == 0 || len(table[0]) == 0 {
		return nil, ErrEmptyHierarchy
	}
	width := len(table[0])
	for raw, r := range table {
		if r == nil {
			continue
		}
		if len(r) != width {
			return nil, fmt.Errorf("hierarchy row for code %d has %d levels, want %d: %w", raw, len(r), width, ErrNonRectangular)
		}
	}
	return &Hierarchy{table: table, height: width - 1}, nil
}

// Lookup returns the generalized code of raw at level.
func (h *Hierarchy) Lookup(raw int32, level int) int32 {
	return h.table[raw][level]
}

// Height returns the maximal generalization level.
func (h *Hierarchy) Height() int { return h.height }

// Covers reports whether raw has a row in the hierarchy.
func (h *Hierarchy) Covers(raw int32) bool {
	return raw >= 0 && int(raw) < len(h.table) && h.table[raw] != nil
}
