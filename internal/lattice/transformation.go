package lattice

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Result is the outcome of checking one transformation.
type Result struct {
	PrivacyModelFulfilled bool `json:"privacy_model_fulfilled"`
	// MinimalClassSizeFulfilled is nil when no minimal class size is configured.
	MinimalClassSizeFulfilled *bool `json:"minimal_class_size_fulfilled,omitempty"`
	// InformationLoss is nil when the model was not fulfilled and loss was not forced.
	InformationLoss *float64 `json:"information_loss,omitempty"`
	LowerBound      *float64 `json:"lower_bound,omitempty"`
}

// Transformation is a node of the generalization lattice.
type Transformation struct {
	levels []int
	key    string
	result *Result
}

// New creates a transformation from a level vector. The vector is copied.
func New(levels []int) *Transformation {
	l := make([]int, len(levels))
	copy(l, levels)
	return &Transformation{levels: l, key: keyOf(l)}
}

func keyOf(levels []int) string {
	buf := make([]byte, 0, len(levels)*2)
	for _, v := range levels {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// Levels returns the level vector. Callers must not modify it.
func (t *Transformation) Levels() []int { return t.levels }

// Level returns the generalization level of column i.
func (t *Transformation) Level(i int) int { return t.levels[i] }

// Dimensions returns the number of quasi-identifying columns.
func (t *Transformation) Dimensions() int { return len(t.levels) }

// Key returns a compact string usable as a map key.
func (t *Transformation) Key() string { return t.key }

// Equal reports whether both transformations carry the same levels.
func (t *Transformation) Equal(o *Transformation) bool {
	return o != nil && t.key == o.key
}

// GeneralizesAtLeast reports whether every level of t is >= the matching level of o.
func (t *Transformation) GeneralizesAtLeast(o *Transformation) bool {
	if o == nil || len(o.levels) != len(t.levels) {
		return false
	}
	for i, l := range t.levels {
		if l < o.levels[i] {
			return false
		}
	}
	return true
}

// Sum returns the sum of all levels (the node's height in the lattice).
func (t *Transformation) Sum() int {
	s := 0
	for _, l := range t.levels {
		s += l
	}
	return s
}

// Checked reports whether a result has been memoized on this node.
func (t *Transformation) Checked() bool { return t.result != nil }

// Result returns the memoized result, or nil.
func (t *Transformation) Result() *Result { return t.result }

// SetResult memoizes r on the node.
func (t *Transformation) SetResult(r *Result) { t.result = r }

// String renders the level vector as "[1,0,2]".
func (t *Transformation) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, l := range t.levels {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(l))
	}
	sb.WriteByte(']')
	return sb.String()
}
