package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHierarchyKeepsRawCodes(t *testing.T) {
	dict := DictionaryOf("b", "a")
	h, err := NewHierarchy([][]string{
		{"a", "ab", "*"},
		{"b", "ab", "*"},
	}, dict)
	require.NoError(t, err)

	assert.Equal(t, int32(1), h.Lookup(1, 0), "raw codes stay stable")
	assert.Equal(t, h.Lookup(0, 1), h.Lookup(1, 1))
	assert.True(t, h.Covers(0))
	assert.False(t, h.Covers(int32(dict.Len())))

	_, err = NewHierarchy([][]string{{"a", "x"}, {"b"}}, NewDictionary())
	assert.ErrorIs(t, err, ErrNonRectangular)
	_, err = NewHierarchy(nil, NewDictionary())
	assert.ErrorIs(t, err, ErrEmptyHierarchy)
}

func TestNewDataset(t *testing.T) {
	input, err := FromRows([][]int32{{0}, {0}, {1}, {1}})
	require.NoError(t, err)
	h, err := HierarchyFromTable([][]int32{{0, 2}, {1, 2}})
	require.NoError(t, err)

	raw := &Raw{
		Header:       []string{"zip"},
		Input:        input,
		Dictionaries: []*Dictionary{DictionaryOf("0", "1", "0-1")},
	}
	d, err := New(raw, []*Hierarchy{h})
	require.NoError(t, err)

	assert.Equal(t, 4, d.Rows())
	assert.Equal(t, 1, d.Dimensions())
	assert.Equal(t, []int{1}, d.MaxLevels())
	assert.Equal(t, SuppressedValue, d.Dictionary(0).Value(d.SuppressionCode(0)))
	assert.Equal(t, 0, d.Analyzed().Columns())

	_, err = New(raw, nil)
	assert.ErrorIs(t, err, ErrHierarchyCount)

	uncovered, err := FromRows([][]int32{{0}, {1}})
	require.NoError(t, err)
	partial, err := HierarchyFromTable([][]int32{{0, 2}})
	require.NoError(t, err)
	_, err = New(&Raw{Input: uncovered, Dictionaries: []*Dictionary{DictionaryOf("0", "1", "0-1")}}, []*Hierarchy{partial})
	assert.ErrorIs(t, err, ErrUncoveredValue)
}

func TestMatrixRowsAreViews(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Row(1)[2] = 7
	assert.Equal(t, int32(7), m.Get(1, 2))

	c := m.Clone()
	c.Set(1, 2, 1)
	assert.Equal(t, int32(7), m.Get(1, 2), "clone must not alias")

	_, err := FromRows([][]int32{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrNonRectangular)
}
