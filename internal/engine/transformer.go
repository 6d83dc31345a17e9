package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// DefaultMinPartitionSize is the smallest number of rows or classes a worker
// is given.
const DefaultMinPartitionSize = 10000

// TransformerConfig sizes the worker fan-out.
type TransformerConfig struct {
	// Workers is the number of partitions, including the calling goroutine.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0"`
	// MinPartitionSize disables fan-out for inputs below twice this size.
	MinPartitionSize int `yaml:"min_partition_size" json:"min_partition_size" validate:"gte=0"`
}

// Transformer builds equivalence class tables from the input through the
// generalization hierarchies.
type Transformer struct {
	data         *dataset.Dataset
	workers      int
	minPartition int
}

// NewTransformer creates a transformer over data.
func NewTransformer(data *dataset.Dataset, cfg TransformerConfig) *Transformer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MinPartitionSize <= 0 {
		cfg.MinPartitionSize = DefaultMinPartitionSize
	}
	return &Transformer{data: data, workers: cfg.Workers, minPartition: cfg.MinPartitionSize}
}

type partition struct{ from, to int }

// partitions splits [0, size) into contiguous ranges, a single one when the
// input is too small to be worth splitting.
func (tr *Transformer) partitions(size int) []partition {
	n := tr.workers
	if n <= 1 || size < tr.minPartition*2 {
		return []partition{{0, size}}
	}
	if most := size / tr.minPartition; most < n {
		n = most
	}
	parts := make([]partition, n)
	chunk := size / n
	for i := range parts {
		parts[i] = partition{i * chunk, (i + 1) * chunk}
	}
	parts[n-1].to = size
	return parts
}

// run fills one partial table per partition and merges them into target in
// partition order. Workers 1..n-1 run in an errgroup, the caller takes
// partition 0. The merge turn is a bounded spin: every worker has finished its
// own partition before it waits, so the wait is only for earlier merges.
func (tr *Transformer) run(target *groupify.Table, size int, trackRows bool,
	fill func(part *groupify.Table, from, to int) error) error {

	parts := tr.partitions(size)
	if len(parts) == 1 {
		return fill(target, 0, size)
	}
	workersEngaged.Observe(float64(len(parts)))

	var turn atomic.Int32
	work := func(i int) (err error) {
		part := target.NewPartial()
		if trackRows {
			part.TrackRowRange(parts[i].from, parts[i].to)
		}
		err = fill(part, parts[i].from, parts[i].to)

		for turn.Load() != int32(i) {
			runtime.Gosched()
		}
		defer turn.Add(1)
		if err != nil {
			return err
		}
		remap := target.MergeFrom(part)
		if trackRows {
			target.RemapRows(part, remap, parts[i].from, parts[i].to)
		}
		return nil
	}

	var g errgroup.Group
	for i := 1; i < len(parts); i++ {
		g.Go(func() error { return work(i) })
	}
	err := work(0)
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

// Apply scans every input row, writes its generalization under t into buffer
// and groups it into target. With trackRows the row to class mapping is kept
// for suppression and microaggregation.
func (tr *Transformer) Apply(t *lattice.Transformation, buffer *dataset.Buffer, target *groupify.Table, trackRows bool) error {
	rows := tr.data.Rows()
	if trackRows {
		target.TrackRows(rows)
	} else {
		target.UntrackRows()
	}

	input := tr.data.Input()
	hierarchies := tr.data.Hierarchies()
	levels := t.Levels()

	err := tr.run(target, rows, trackRows, func(part *groupify.Table, from, to int) error {
		for row := from; row < to; row++ {
			out := buffer.Row(row)
			for col, raw := range input.Row(row) {
				out[col] = hierarchies[col].Lookup(raw, levels[col])
			}
			if _, err := part.InsertOrUpdate(out, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		buffer.Invalidate()
		return err
	}
	buffer.MarkWritten(t)
	return nil
}

// ApplyRollup regroups the classes of source, built for a node that t
// generalizes, into target. Columns in projection keep their codes; the others
// are re-derived from each class's representative row.
func (tr *Transformer) ApplyRollup(t *lattice.Transformation, projection *bitset.BitSet, source, target *groupify.Table) error {
	if source == nil {
		return ErrNoPriorState
	}
	classes := source.Classes()
	return tr.rollup(t, projection, target, len(classes), func(i int) *groupify.Class { return classes[i] })
}

// ApplySnapshot rebuilds target from snap. A snapshot of t itself is restored
// as is; a snapshot of a node t generalizes is rolled up like a table.
func (tr *Transformer) ApplySnapshot(t *lattice.Transformation, snap *history.Snapshot, target *groupify.Table) error {
	target.UntrackRows()
	if snap.Transformation().Equal(t) {
		return snap.Restore(target)
	}
	projection := lattice.EqualColumns(t, snap.Transformation())
	return tr.rollup(t, projection, target, snap.Size(), snap.Class)
}

func (tr *Transformer) rollup(t *lattice.Transformation, projection *bitset.BitSet, target *groupify.Table,
	size int, class func(i int) *groupify.Class) error {

	target.UntrackRows()
	input := tr.data.Input()
	hierarchies := tr.data.Hierarchies()
	levels := t.Levels()
	active := lattice.ActiveColumns(projection, t.Dimensions())

	return tr.run(target, size, false, func(part *groupify.Table, from, to int) error {
		key := make([]int32, t.Dimensions())
		for i := from; i < to; i++ {
			c := class(i)
			copy(key, c.Key)
			rep := input.Row(c.Representative)
			for _, col := range active {
				key[col] = hierarchies[col].Lookup(rep[col], levels[col])
			}
			if _, err := part.InsertClass(key, c); err != nil {
				return err
			}
		}
		return nil
	})
}
