package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

func TestPartitions(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		min     int
		size    int
		want    []partition
	}{
		{"single worker", 1, 10, 1000, []partition{{0, 1000}}},
		{"below threshold", 4, 10, 19, []partition{{0, 19}}},
		{"limited by size", 4, 10, 25, []partition{{0, 12}, {12, 25}}},
		{"all workers", 3, 10, 100, []partition{{0, 33}, {33, 66}, {66, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transformer{workers: tt.workers, minPartition: tt.min}
			assert.Equal(t, tt.want, tr.partitions(tt.size))
		})
	}
}

// apply runs a full scan of levels with the given worker count.
func apply(t *testing.T, data *dataset.Dataset, workers int, levels []int, track bool) (*groupify.Table, *dataset.Buffer) {
	t.Helper()
	tr := NewTransformer(data, TransformerConfig{Workers: workers, MinPartitionSize: 100})
	table := groupify.New(data.Dimensions(), data.Analyzed(), groupify.Config{})
	buf := dataset.NewBuffer(data.Rows(), data.Dimensions())
	require.NoError(t, tr.Apply(lattice.New(levels), buf, table, track))
	return table, buf
}

func marshal(t *testing.T, levels []int, table *groupify.Table) []byte {
	t.Helper()
	b, err := history.NewSnapshot(lattice.New(levels), table).MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestApplyWorkersAreDeterministic(t *testing.T) {
	data := syntheticDataset(t, 2000, 3, 16)

	for _, levels := range [][]int{{0, 0, 0}, {1, 0, 2}, {3, 3, 3}} {
		single, singleBuf := apply(t, data, 1, levels, true)
		parallel, parallelBuf := apply(t, data, 4, levels, true)

		assert.Equal(t, marshal(t, levels, single), marshal(t, levels, parallel), "levels %v", levels)
		assert.Equal(t, singleBuf.Data(), parallelBuf.Data())
		for row := 0; row < data.Rows(); row++ {
			require.Equal(t, single.RowClass(row), parallel.RowClass(row), "row %d", row)
		}
	}
}

func TestApplyRollupWorkersAreDeterministic(t *testing.T) {
	data := syntheticDataset(t, 2000, 2, 40)
	from, to := lattice.New([]int{0, 0}), lattice.New([]int{1, 2})

	source, _ := apply(t, data, 1, from.Levels(), false)
	require.Greater(t, source.Size(), 40, "enough classes to partition")

	var results [][]byte
	var last *groupify.Table
	for _, workers := range []int{1, 4} {
		tr := NewTransformer(data, TransformerConfig{Workers: workers, MinPartitionSize: 10})
		target := source.NewPartial()
		require.NoError(t, tr.ApplyRollup(to, lattice.EqualColumns(to, from), source, target))
		results = append(results, marshal(t, to.Levels(), target))
		last = target
	}
	assert.Equal(t, results[0], results[1])

	full, _ := apply(t, data, 1, to.Levels(), false)
	assert.Equal(t, summarize(full, true), summarize(last, true))
}

func TestApplyMarksBuffer(t *testing.T) {
	data := scenarioDataset(t)
	node := lattice.New([]int{1})
	tr := NewTransformer(data, TransformerConfig{})
	table := groupify.New(1, nil, groupify.Config{})
	buf := dataset.NewBuffer(4, 1)

	require.NoError(t, tr.Apply(node, buf, table, false))
	assert.Same(t, node, buf.Transformation())
	for row := 0; row < 4; row++ {
		assert.Equal(t, int32(2), buf.Get(row, 0))
	}
	assert.Equal(t, -1, table.RowClass(0), "rows not tracked")
}

func TestApplyRollupNeedsSource(t *testing.T) {
	tr := NewTransformer(scenarioDataset(t), TransformerConfig{})
	err := tr.ApplyRollup(lattice.New([]int{1}), nil, nil, groupify.New(1, nil, groupify.Config{}))
	assert.ErrorIs(t, err, ErrNoPriorState)
}
