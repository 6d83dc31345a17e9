package groupify

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
)

// AggregateFunc reduces the values of one class to a single value. values and
// freqs are aligned and ordered by value code.
type AggregateFunc func(values []string, freqs []int) (string, error)

// Microaggregation replaces analyzed column Column by Function's class aggregate.
type Microaggregation struct {
	Column   int
	Function AggregateFunc
}

// PerformMicroaggregation writes one output column per configured column: every row gets
// the aggregate of its class, rows of suppressed classes get
// dataset.SuppressedValue. Aggregates are encoded into fresh dictionaries so the
// input dictionaries stay untouched. Requires row tracking.
func (t *Table) PerformMicroaggregation(specs []Microaggregation, dicts []*dataset.Dictionary) (*dataset.Matrix, []*dataset.Dictionary, error) {
	if t.rowClass == nil {
		return nil, nil, ErrRowsNotTracked
	}
	for _, s := range specs {
		if s.Column < 0 || s.Column >= t.values.Columns() || s.Column >= len(dicts) {
			return nil, nil, fmt.Errorf("column %d: %w", s.Column, ErrUnknownColumn)
		}
	}

	out := dataset.NewMatrix(len(t.rowClass), len(specs))
	outDicts := make([]*dataset.Dictionary, len(specs))
	codes := make([]int32, len(t.classes))

	for j, s := range specs {
		outDict := dataset.NewDictionary()
		outDicts[j] = outDict
		for ci, c := range t.classes {
			if c.Suppressed {
				codes[ci] = outDict.Register(dataset.SuppressedValue)
				continue
			}
			vals, freqs := c.Distributions[s.Column].Sorted()
			strs := make([]string, len(vals))
			counts := make([]int, len(vals))
			for i, v := range vals {
				strs[i] = dicts[s.Column].Value(v)
				counts[i] = int(freqs[i])
			}
			agg, err := s.Function(strs, counts)
			if err != nil {
				return nil, nil, fmt.Errorf("column %d class %v: %w", s.Column, c.Key, err)
			}
			codes[ci] = outDict.Register(agg)
		}
		for row, ci := range t.rowClass {
			out.Set(row, j, codes[ci])
		}
	}
	return out, outDicts, nil
}

func parseNumbers(values []string) ([]float64, error) {
	nums := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", v, ErrNotNumeric)
		}
		nums[i] = f
	}
	return nums, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Mean is the frequency weighted arithmetic mean.
func Mean(values []string, freqs []int) (string, error) {
	nums, err := parseNumbers(values)
	if err != nil {
		return "", err
	}
	sum, n := 0.0, 0
	for i, f := range nums {
		sum += f * float64(freqs[i])
		n += freqs[i]
	}
	if n == 0 {
		return "", ErrEmptyDistribution
	}
	return formatNumber(sum / float64(n)), nil
}

// Median is the median of the expanded multiset; for an even count it is the
// mean of the two middle values.
func Median(values []string, freqs []int) (string, error) {
	nums, err := parseNumbers(values)
	if err != nil {
		return "", err
	}
	order := make([]int, len(nums))
	n := 0
	for i := range order {
		order[i] = i
		n += freqs[i]
	}
	if n == 0 {
		return "", ErrEmptyDistribution
	}
	sort.SliceStable(order, func(a, b int) bool { return nums[order[a]] < nums[order[b]] })

	at := func(pos int) float64 {
		for _, o := range order {
			if pos < freqs[o] {
				return nums[o]
			}
			pos -= freqs[o]
		}
		return nums[order[len(order)-1]]
	}
	if n%2 == 1 {
		return formatNumber(at(n / 2)), nil
	}
	return formatNumber((at(n/2-1) + at(n/2)) / 2), nil
}

// Mode returns the most frequent value, the first in code order on ties. It
// works on any value type.
func Mode(values []string, freqs []int) (string, error) {
	best := -1
	for i, f := range freqs {
		if f > 0 && (best < 0 || f > freqs[best]) {
			best = i
		}
	}
	if best < 0 {
		return "", ErrEmptyDistribution
	}
	return values[best], nil
}
