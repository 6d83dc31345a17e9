package groupify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

func minCount(k int) Predicate {
	return PredicateFunc(func(_ *lattice.Transformation, c *Class) bool { return c.Count >= k })
}

// buildTable groups rows by their key and tracks rows.
func buildTable(t *testing.T, keys [][]int32, values *dataset.Matrix) *Table {
	t.Helper()
	tbl := New(len(keys[0]), values, Config{})
	tbl.TrackRows(len(keys))
	for row, k := range keys {
		_, err := tbl.InsertOrUpdate(k, row)
		require.NoError(t, err)
	}
	return tbl
}

func TestAnalyze(t *testing.T) {
	keys := [][]int32{{0}, {0}, {0}, {1}, {2}, {2}}
	node := lattice.New([]int{0})

	tests := []struct {
		name       string
		model      Model
		force      bool
		fulfilled  bool
		outliers   int
		minimal    *bool
		suppressed []bool
		complete   bool
	}{
		{
			name:       "within outlier limit",
			model:      Model{Predicate: minCount(2), MaxOutliers: 1},
			fulfilled:  true,
			outliers:   1,
			suppressed: []bool{false, true, false},
			complete:   true,
		},
		{
			name:       "early abort clears later classes",
			model:      Model{Predicate: minCount(3), MaxOutliers: 0},
			fulfilled:  false,
			outliers:   1,
			suppressed: []bool{false, true, false},
			complete:   false,
		},
		{
			name:       "forced analysis visits everything",
			model:      Model{Predicate: minCount(3), MaxOutliers: 0},
			force:      true,
			fulfilled:  false,
			outliers:   3,
			suppressed: []bool{false, true, true},
			complete:   true,
		},
		{
			name:       "minimal class size",
			model:      Model{Predicate: minCount(1), MaxOutliers: 0, MinimalClassSize: 2},
			fulfilled:  true,
			outliers:   0,
			minimal:    new(bool),
			suppressed: []bool{false, false, false},
			complete:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := buildTable(t, keys, nil)
			a, err := tbl.Analyze(node, tt.force, tt.model)
			require.NoError(t, err)

			assert.Equal(t, tt.fulfilled, a.PrivacyModelFulfilled)
			assert.Equal(t, tt.outliers, a.Outliers)
			assert.Equal(t, tt.outliers, tbl.Outliers())
			assert.Equal(t, tt.minimal, a.MinimalClassSizeFulfilled)
			assert.Equal(t, tt.complete, a.Complete)
			assert.Equal(t, a, tbl.LastAnalysis())
			for i, c := range tbl.Classes() {
				assert.Equal(t, tt.suppressed[i], c.Suppressed, "class %d", i)
			}
		})
	}
}

func TestAnalyzeEmptyTableIsFulfilled(t *testing.T) {
	tbl := New(3, nil, Config{})
	a, err := tbl.Analyze(lattice.New([]int{0, 0, 0}), false, Model{Predicate: minCount(5), MinimalClassSize: 5})
	require.NoError(t, err)

	assert.True(t, a.PrivacyModelFulfilled)
	require.NotNil(t, a.MinimalClassSizeFulfilled)
	assert.True(t, *a.MinimalClassSizeFulfilled)
	assert.Zero(t, a.Outliers)
}

func TestAnalyzeRequiresPredicate(t *testing.T) {
	tbl := New(1, nil, Config{})
	_, err := tbl.Analyze(lattice.New([]int{0}), false, Model{})
	assert.ErrorIs(t, err, ErrNoPredicate)
}

func TestResetSuppressionKeepsSignatures(t *testing.T) {
	// 1. One failing class
	keys := [][]int32{{4, 4}, {4, 4}, {5, 5}}
	tbl := buildTable(t, keys, nil)
	node := lattice.New([]int{0, 0})

	a, err := tbl.Analyze(node, false, Model{Predicate: minCount(2)})
	require.NoError(t, err)
	require.False(t, a.PrivacyModelFulfilled)
	require.True(t, tbl.Classes()[1].Suppressed)

	// 2. Reset and re-analyze with force
	tbl.ResetSuppression()
	assert.Zero(t, tbl.Outliers())
	for _, c := range tbl.Classes() {
		assert.False(t, c.Suppressed)
	}
	_, err = tbl.Analyze(node, true, Model{Predicate: minCount(2)})
	require.NoError(t, err)
	tbl.ResetSuppression()

	// 3. Original signatures survive for loss computation
	assert.Equal(t, []int32{5, 5}, tbl.Classes()[1].Key)
	assert.Equal(t, 1, tbl.Classes()[1].Count)
}

func TestPerformSuppression(t *testing.T) {
	keys := [][]int32{{1, 1}, {2, 2}, {1, 1}}
	tbl := buildTable(t, keys, nil)
	_, err := tbl.Analyze(lattice.New([]int{0, 0}), true, Model{Predicate: minCount(2), MaxOutliers: 1})
	require.NoError(t, err)

	buf := dataset.NewBuffer(3, 2)
	for row, k := range keys {
		copy(buf.Row(row), k)
	}
	require.NoError(t, tbl.PerformSuppression(buf, []int32{9, 9}))

	assert.Equal(t, []int32{1, 1}, buf.Row(0))
	assert.Equal(t, []int32{9, 9}, buf.Row(1))
	assert.Equal(t, []int32{1, 1}, buf.Row(2))

	assert.ErrorIs(t, tbl.PerformSuppression(buf, []int32{9}), ErrInvalidKey)

	untracked := New(2, nil, Config{})
	assert.ErrorIs(t, untracked.PerformSuppression(buf, []int32{9, 9}), ErrRowsNotTracked)
}
