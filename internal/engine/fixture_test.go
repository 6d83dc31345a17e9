package engine

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// syntheticDataset builds rows x dims quasi-identifiers with card distinct
// raw values per column, a 3 level hierarchy per column (halving, quartering,
// then "*") and one sensitive column with 4 values.
func syntheticDataset(t *testing.T, rows, dims, card int) *dataset.Dataset {
	t.Helper()

	input := dataset.NewMatrix(rows, dims)
	analyzed := dataset.NewMatrix(rows, 1)
	for row := 0; row < rows; row++ {
		for col := 0; col < dims; col++ {
			input.Set(row, col, int32((row*7+col*13+row/(3+col*5))%card))
		}
		analyzed.Set(row, 0, int32((row*5+row/7)%4))
	}

	dicts := make([]*dataset.Dictionary, dims)
	hierarchies := make([]*dataset.Hierarchy, dims)
	for col := 0; col < dims; col++ {
		dict := dataset.NewDictionary()
		levels := make([][]string, card)
		for v := 0; v < card; v++ {
			dict.Register(fmt.Sprintf("v%d", v))
			levels[v] = []string{fmt.Sprintf("v%d", v), fmt.Sprintf("h%d", v/2), fmt.Sprintf("q%d", v/4), "*"}
		}
		h, err := dataset.NewHierarchy(levels, dict)
		require.NoError(t, err)
		dicts[col], hierarchies[col] = dict, h
	}

	header := make([]string, dims)
	for col := range header {
		header[col] = fmt.Sprintf("qi%d", col)
	}
	data, err := dataset.New(&dataset.Raw{
		Header:               header,
		Input:                input,
		Dictionaries:         dicts,
		AnalyzedHeader:       []string{"disease"},
		Analyzed:             analyzed,
		AnalyzedDictionaries: []*dataset.Dictionary{dataset.DictionaryOf("s0", "s1", "s2", "s3")},
	}, hierarchies)
	require.NoError(t, err)
	return data
}

// scenarioDataset is 4 rows of one column with raw codes [0,0,1,1] and a
// hierarchy generalizing both values to one code at level 1.
func scenarioDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	input, err := dataset.FromRows([][]int32{{0}, {0}, {1}, {1}})
	require.NoError(t, err)
	h, err := dataset.HierarchyFromTable([][]int32{{0, 2}, {1, 2}})
	require.NoError(t, err)
	data, err := dataset.New(&dataset.Raw{
		Header:       []string{"zip"},
		Input:        input,
		Dictionaries: []*dataset.Dictionary{dataset.DictionaryOf("0", "1", "0-1")},
	}, []*dataset.Hierarchy{h})
	require.NoError(t, err)
	return data
}

func minCount(k int) groupify.Predicate {
	return groupify.PredicateFunc(func(_ *lattice.Transformation, c *groupify.Class) bool { return c.Count >= k })
}

// classCount is a metric whose loss is the number of classes. It records the
// keys it was shown.
type classCount struct {
	seen [][]int32
}

func (m *classCount) record(table *groupify.Table) {
	m.seen = m.seen[:0]
	for _, c := range table.Classes() {
		if !c.Suppressed {
			m.seen = append(m.seen, append([]int32(nil), c.Key...))
		}
	}
}

func (m *classCount) InformationLoss(_ *lattice.Transformation, table *groupify.Table) (float64, float64) {
	m.record(table)
	return float64(table.Size()), 1
}

func (m *classCount) LowerBound(_ *lattice.Transformation, table *groupify.Table) float64 {
	m.record(table)
	return 1
}

func newTestChecker(t *testing.T, data *dataset.Dataset, mutate func(*Options)) *Checker {
	t.Helper()
	opts := Options{
		Model:   groupify.Model{Predicate: minCount(1)},
		Metric:  &classCount{},
		History: historyBudget(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewChecker(data, opts)
	require.NoError(t, err)
	return c
}

type classSummary struct {
	key   string
	count int
	dist  string
}

// summarize returns the multiset of classes as a sorted slice.
func summarize(table *groupify.Table, withDistributions bool) []classSummary {
	out := make([]classSummary, 0, table.Size())
	for _, c := range table.Classes() {
		s := classSummary{key: fmt.Sprint(c.Key), count: c.Count}
		if withDistributions && len(c.Distributions) > 0 {
			values, freqs := c.Distributions[0].Sorted()
			s.dist = fmt.Sprint(values, freqs)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
