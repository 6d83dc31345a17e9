package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

func class(count int, values ...int32) *groupify.Class {
	d := &groupify.Distribution{}
	for _, v := range values {
		d.Add(v, 1)
	}
	return &groupify.Class{Count: count, Distributions: []*groupify.Distribution{d}}
}

func TestCriteria(t *testing.T) {
	node := lattice.New([]int{0})
	tests := []struct {
		name      string
		predicate groupify.Predicate
		class     *groupify.Class
		want      bool
	}{
		{"k met", KAnonymity{K: 3}, class(3), true},
		{"k missed", KAnonymity{K: 3}, class(2), false},
		{"distinct l met", DistinctLDiversity{L: 2}, class(3, 1, 2, 2), true},
		{"distinct l missed", DistinctLDiversity{L: 3}, class(3, 1, 2, 2), false},
		{"distinct l missing column", DistinctLDiversity{L: 1, Column: 4}, class(1, 1), false},
		{"entropy l uniform", EntropyLDiversity{L: 2}, class(2, 1, 2), true},
		{"entropy l skewed", EntropyLDiversity{L: 2}, class(4, 1, 1, 1, 2), false},
		{"all", All{KAnonymity{K: 2}, DistinctLDiversity{L: 2}}, class(2, 1, 2), true},
		{"all one fails", All{KAnonymity{K: 3}, DistinctLDiversity{L: 2}}, class(2, 1, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate.Fulfilled(node, tt.class))
		})
	}
}

func TestConstructorsValidate(t *testing.T) {
	_, err := NewKAnonymity(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewDistinctLDiversity(0, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewEntropyLDiversity(0.5, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	k, err := NewKAnonymity(5)
	require.NoError(t, err)
	assert.Equal(t, 5, k.K)
}

func TestBuild(t *testing.T) {
	columns := func(name string) (int, bool) {
		if name == "disease" {
			return 0, true
		}
		return -1, false
	}

	p, err := Build([]Criterion{{Name: "k-anonymity", K: 2}}, columns)
	require.NoError(t, err)
	assert.Equal(t, KAnonymity{K: 2}, p)

	p, err = Build([]Criterion{
		{Name: "k-anonymity", K: 2},
		{Name: "distinct-l-diversity", L: 2, Column: "disease"},
	}, columns)
	require.NoError(t, err)
	assert.Len(t, p, 2)

	_, err = Build([]Criterion{{Name: "t-closeness"}}, columns)
	assert.ErrorIs(t, err, ErrUnknownCriterion)
	_, err = Build([]Criterion{{Name: "entropy-l-diversity", L: 2, Column: "zip"}}, columns)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
