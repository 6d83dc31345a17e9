package groupify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

func TestAggregateFunctions(t *testing.T) {
	tests := []struct {
		name   string
		fn     AggregateFunc
		values []string
		freqs  []int
		want   string
	}{
		{"mean", Mean, []string{"10", "20"}, []int{3, 1}, "12.5"},
		{"median odd", Median, []string{"30", "10", "20"}, []int{1, 1, 1}, "20"},
		{"median even", Median, []string{"1", "4"}, []int{1, 1}, "2.5"},
		{"median weighted", Median, []string{"1", "9"}, []int{3, 1}, "1"},
		{"mode", Mode, []string{"a", "b", "c"}, []int{1, 3, 3}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.values, tt.freqs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Mean([]string{"x"}, []int{1})
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = Median(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
	_, err = Mode(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDistribution)
}

func TestPerformMicroaggregation(t *testing.T) {
	// 1. Setup
	// Rows 0,1 share class [0]; row 2 is alone in class [1]
	ages := dataset.DictionaryOf("20", "40", "99")
	values := mustMatrix(t, [][]int32{{0}, {1}, {2}})
	tbl := buildTable(t, [][]int32{{0}, {0}, {1}}, values)

	_, err := tbl.Analyze(lattice.New([]int{0}), true, Model{Predicate: minCount(2), MaxOutliers: 1})
	require.NoError(t, err)

	// 2. Run
	out, dicts, err := tbl.PerformMicroaggregation(
		[]Microaggregation{{Column: 0, Function: Mean}},
		[]*dataset.Dictionary{ages},
	)
	require.NoError(t, err)

	// 3. Assertions
	require.Len(t, dicts, 1)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, "30", dicts[0].Value(out.Get(0, 0)))
	assert.Equal(t, "30", dicts[0].Value(out.Get(1, 0)))
	assert.Equal(t, dataset.SuppressedValue, dicts[0].Value(out.Get(2, 0)))
	assert.Equal(t, 3, ages.Len(), "input dictionary untouched")

	_, _, err = tbl.PerformMicroaggregation([]Microaggregation{{Column: 3, Function: Mean}}, []*dataset.Dictionary{ages})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
