package groupify

import (
	"fmt"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
)

const (
	// DefaultLoadFactor is the fill ratio that triggers a rehash.
	DefaultLoadFactor = 0.75
	// DefaultInitialCapacity is the initial number of hash slots.
	DefaultInitialCapacity = 1024
)

// Config sizes a Table.
type Config struct {
	LoadFactor      float64
	InitialCapacity int
}

func (c Config) normalized() Config {
	if c.LoadFactor <= 0 || c.LoadFactor >= 1 {
		c.LoadFactor = DefaultLoadFactor
	}
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	return c
}

// Class is one equivalence class.
type Class struct {
	// Key is the generalized signature. Callers must not modify it.
	Key  []int32
	hash uint64

	Count int
	// Representative is the lowest row index of the class.
	Representative int
	// Suppressed marks a class that failed the privacy predicate in the last analysis.
	Suppressed bool
	// Distributions holds one distribution per analyzed column.
	Distributions []*Distribution
}

// Hash returns the precomputed signature hash.
func (c *Class) Hash() uint64 { return c.hash }

// Table is an insertion ordered hash table of equivalence classes.
type Table struct {
	dims   int
	values *dataset.Matrix
	cfg    Config

	classes   []*Class
	slots     []int32 // class index + 1, 0 = empty
	mask      uint64
	threshold int
	rows      int

	rowClass []int32
	rowBase  int

	outliers int
	analysis Analysis
}

// New creates a table for signatures of width dims. values holds the analyzed
// columns folded into class distributions; it may be nil or have no columns.
func New(dims int, values *dataset.Matrix, cfg Config) *Table {
	if values == nil {
		values = dataset.NewMatrix(0, 0)
	}
	t := &Table{dims: dims, values: values, cfg: cfg.normalized()}
	t.allocate(t.cfg.InitialCapacity)
	return t
}

func (t *Table) allocate(capacity int) {
	size := 1
	for size < capacity {
		size <<= 1
	}
	t.slots = make([]int32, size)
	t.mask = uint64(size - 1)
	t.threshold = int(float64(size) * t.cfg.LoadFactor)
}

// NewPartial creates an empty table with the same shape, used by workers.
func (t *Table) NewPartial() *Table {
	return New(t.dims, t.values, t.cfg)
}

// Dimensions returns the signature width.
func (t *Table) Dimensions() int { return t.dims }

// AnalyzedColumns returns the number of distributions per class.
func (t *Table) AnalyzedColumns() int { return t.values.Columns() }

// Size returns the number of equivalence classes.
func (t *Table) Size() int { return len(t.classes) }

// Rows returns the number of rows represented by all classes.
func (t *Table) Rows() int { return t.rows }

// Classes returns the classes in insertion order. Callers must not modify the slice.
func (t *Table) Classes() []*Class { return t.classes }

// Outliers returns the number of rows in classes marked as suppressed.
func (t *Table) Outliers() int { return t.outliers }

// Get returns the class with the given signature, or nil.
func (t *Table) Get(key []int32) *Class {
	if len(key) != t.dims {
		return nil
	}
	if _, idx := t.find(key, hashKey(key)); idx >= 0 {
		return t.classes[idx]
	}
	return nil
}

// TrackRows makes subsequent row insertions record their class index so the
// output can be suppressed and microaggregated. rows = 0 tracks an empty
// input; use UntrackRows to turn tracking off.
func (t *Table) TrackRows(rows int) { t.TrackRowRange(0, rows) }

// TrackRowRange tracks rows [from, to) only. Partial tables use it so each
// holds the mapping of its own partition.
func (t *Table) TrackRowRange(from, to int) {
	n := max(to-from, 0)
	t.rowBase = from
	if t.rowClass != nil && cap(t.rowClass) >= n {
		t.rowClass = t.rowClass[:n]
		return
	}
	t.rowClass = make([]int32, n)
}

// UntrackRows turns row tracking off.
func (t *Table) UntrackRows() {
	t.rowClass = nil
	t.rowBase = 0
}

// RowClass returns the class index of row, or -1 when row is not tracked.
func (t *Table) RowClass(row int) int {
	i := row - t.rowBase
	if t.rowClass == nil || i < 0 || i >= len(t.rowClass) {
		return -1
	}
	return int(t.rowClass[i])
}

func (t *Table) find(key []int32, h uint64) (uint64, int32) {
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		s := t.slots[i]
		if s == 0 {
			return i, -1
		}
		c := t.classes[s-1]
		if c.hash == h && equalKeys(c.Key, key) {
			return i, s - 1
		}
	}
}

func (t *Table) add(slot uint64, c *Class) int32 {
	t.classes = append(t.classes, c)
	idx := int32(len(t.classes) - 1)
	t.slots[slot] = idx + 1
	if len(t.classes) > t.threshold {
		t.rehash()
	}
	return idx
}

func (t *Table) rehash() {
	t.allocate(len(t.slots) * 2)
	for i, c := range t.classes {
		s := c.hash & t.mask
		for t.slots[s] != 0 {
			s = (s + 1) & t.mask
		}
		t.slots[s] = int32(i) + 1
	}
}

func (t *Table) newDistributions() []*Distribution {
	n := t.values.Columns()
	if n == 0 {
		return nil
	}
	d := make([]*Distribution, n)
	for i := range d {
		d[i] = &Distribution{}
	}
	return d
}

// InsertOrUpdate adds raw row to the class with signature key, creating the
// class if needed, and folds the row's analyzed values into its
// distributions. The key is copied on class creation. Returns the class index.
func (t *Table) InsertOrUpdate(key []int32, row int) (int, error) {
	if len(key) != t.dims {
		return -1, fmt.Errorf("row %d: got %d codes, want %d: %w", row, len(key), t.dims, ErrInvalidKey)
	}
	h := hashKey(key)
	slot, idx := t.find(key, h)

	var c *Class
	if idx >= 0 {
		c = t.classes[idx]
		c.Count++
		if row < c.Representative {
			c.Representative = row
		}
	} else {
		c = &Class{
			Key:            append([]int32(nil), key...),
			hash:           h,
			Count:          1,
			Representative: row,
			Distributions:  t.newDistributions(),
		}
		idx = t.add(slot, c)
	}

	if t.values.Columns() > 0 {
		for j, v := range t.values.Row(row) {
			c.Distributions[j].Add(v, 1)
		}
	}
	t.rows++
	if t.rowClass != nil {
		t.rowClass[row-t.rowBase] = idx
	}
	return int(idx), nil
}

// InsertClass folds a whole source class into the class with signature key:
// counts add up, distributions merge and the lower representative wins. from
// is only read; new classes get their own copies.
func (t *Table) InsertClass(key []int32, from *Class) (int, error) {
	if len(key) != t.dims {
		return -1, fmt.Errorf("class %v: %w", key, ErrInvalidKey)
	}
	return int(t.insertClass(key, hashKey(key), from, false)), nil
}

func (t *Table) insertClass(key []int32, h uint64, from *Class, adopt bool) int32 {
	slot, idx := t.find(key, h)
	if idx < 0 {
		if adopt {
			from.Suppressed = false
			idx = t.add(slot, from)
		} else {
			c := &Class{
				Key:            append([]int32(nil), key...),
				hash:           h,
				Count:          from.Count,
				Representative: from.Representative,
				Distributions:  make([]*Distribution, len(from.Distributions)),
			}
			for j, d := range from.Distributions {
				c.Distributions[j] = d.Clone()
			}
			idx = t.add(slot, c)
		}
		t.rows += from.Count
		return idx
	}

	c := t.classes[idx]
	c.Count += from.Count
	if from.Representative < c.Representative {
		c.Representative = from.Representative
	}
	for j, d := range from.Distributions {
		c.Distributions[j].Merge(d)
	}
	t.rows += from.Count
	return idx
}

// MergeFrom folds all classes of a partial table built over a disjoint
// partition into t, in the partial's insertion order. Classes unknown to t are
// adopted, so other must not be used afterwards. The returned slice maps the
// partial's class indices to indices in t.
func (t *Table) MergeFrom(other *Table) []int32 {
	remap := make([]int32, len(other.classes))
	for i, c := range other.classes {
		remap[i] = t.insertClass(c.Key, c.hash, c, true)
	}
	other.classes = nil
	return remap
}

// RemapRows rewrites the tracked class index of rows [from, to) through remap.
// Rows must have been tracked by a partial table whose indices remap translates.
func (t *Table) RemapRows(partial *Table, remap []int32, from, to int) {
	if t.rowClass == nil || partial.rowClass == nil {
		return
	}
	for row := from; row < to; row++ {
		t.rowClass[row-t.rowBase] = remap[partial.rowClass[row-partial.rowBase]]
	}
}

// Clear drops all classes, keeping the slot capacity.
func (t *Table) Clear() {
	clear(t.classes)
	t.classes = t.classes[:0]
	clear(t.slots)
	t.rows = 0
	t.outliers = 0
	t.analysis = Analysis{}
	t.UntrackRows()
}
