package history

import (
	"encoding/binary"

	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// Snapshot is a flattened, immutable copy of an equivalence class table.
type Snapshot struct {
	node   *lattice.Transformation
	dims   int
	keys   []int32 // classes x dims
	counts []int32
	reps   []int32
	dists  [][]*groupify.Distribution
}

// NewSnapshot copies every class of table, including its distributions.
func NewSnapshot(t *lattice.Transformation, table *groupify.Table) *Snapshot {
	classes := table.Classes()
	s := &Snapshot{
		node:   t,
		dims:   table.Dimensions(),
		keys:   make([]int32, 0, len(classes)*table.Dimensions()),
		counts: make([]int32, len(classes)),
		reps:   make([]int32, len(classes)),
		dists:  make([][]*groupify.Distribution, len(classes)),
	}
	for i, c := range classes {
		s.keys = append(s.keys, c.Key...)
		s.counts[i] = int32(c.Count)
		s.reps[i] = int32(c.Representative)
		if len(c.Distributions) > 0 {
			d := make([]*groupify.Distribution, len(c.Distributions))
			for j, dist := range c.Distributions {
				d[j] = dist.Clone()
			}
			s.dists[i] = d
		}
	}
	return s
}

// Transformation returns the node the snapshot was taken for.
func (s *Snapshot) Transformation() *lattice.Transformation { return s.node }

// Size returns the number of classes.
func (s *Snapshot) Size() int { return len(s.counts) }

// Dimensions returns the signature width.
func (s *Snapshot) Dimensions() int { return s.dims }

// Key returns the signature of class i. Callers must not modify it.
func (s *Snapshot) Key(i int) []int32 {
	return s.keys[i*s.dims : (i+1)*s.dims : (i+1)*s.dims]
}

// Class returns a read-only view of class i suitable for Table.InsertClass.
func (s *Snapshot) Class(i int) *groupify.Class {
	return &groupify.Class{
		Key:            s.Key(i),
		Count:          int(s.counts[i]),
		Representative: int(s.reps[i]),
		Distributions:  s.dists[i],
	}
}

// Restore inserts every class into target, which is expected to be empty.
func (s *Snapshot) Restore(target *groupify.Table) error {
	for i := range s.counts {
		if _, err := target.InsertClass(s.Key(i), s.Class(i)); err != nil {
			return err
		}
	}
	return nil
}

// MarshalBinary encodes the snapshot canonically: classes in stored order,
// distributions sorted by value code.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 16+len(s.keys)*2+len(s.counts)*4)
	buf = binary.AppendUvarint(buf, uint64(s.dims))
	if s.node != nil {
		buf = append(buf, s.node.Key()...)
	}
	buf = binary.AppendUvarint(buf, uint64(len(s.counts)))
	for i := range s.counts {
		for _, k := range s.Key(i) {
			buf = binary.AppendVarint(buf, int64(k))
		}
		buf = binary.AppendUvarint(buf, uint64(s.counts[i]))
		buf = binary.AppendUvarint(buf, uint64(s.reps[i]))
		buf = binary.AppendUvarint(buf, uint64(len(s.dists[i])))
		for _, d := range s.dists[i] {
			values, freqs := d.Sorted()
			buf = binary.AppendUvarint(buf, uint64(len(values)))
			for j, v := range values {
				buf = binary.AppendVarint(buf, int64(v))
				buf = binary.AppendUvarint(buf, uint64(freqs[j]))
			}
		}
	}
	return buf, nil
}
