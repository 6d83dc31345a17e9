package groupify

import "sort"

// Small distributions are scanned linearly; a map index is built past this size.
const linearScanLimit = 8

// Distribution records value code -> frequency pairs for one analyzed column
// within one equivalence class, in order of first occurrence.
type Distribution struct {
	values []int32
	freqs  []int32
	index  map[int32]int32
}

func (d *Distribution) find(v int32) int {
	if d.index != nil {
		if i, ok := d.index[v]; ok {
			return int(i)
		}
		return -1
	}
	for i, x := range d.values {
		if x == v {
			return i
		}
	}
	return -1
}

// Add adds n occurrences of value v.
func (d *Distribution) Add(v int32, n int32) {
	if i := d.find(v); i >= 0 {
		d.freqs[i] += n
		return
	}
	d.values = append(d.values, v)
	d.freqs = append(d.freqs, n)
	switch {
	case d.index != nil:
		d.index[v] = int32(len(d.values) - 1)
	case len(d.values) > linearScanLimit:
		d.index = make(map[int32]int32, len(d.values)*2)
		for i, x := range d.values {
			d.index[x] = int32(i)
		}
	}
}

// Merge folds all pairs of o into d.
func (d *Distribution) Merge(o *Distribution) {
	for i, v := range o.values {
		d.Add(v, o.freqs[i])
	}
}

// Clone returns a deep copy.
func (d *Distribution) Clone() *Distribution {
	c := &Distribution{
		values: append([]int32(nil), d.values...),
		freqs:  append([]int32(nil), d.freqs...),
	}
	if d.index != nil {
		c.index = make(map[int32]int32, len(d.index))
		for k, v := range d.index {
			c.index[k] = v
		}
	}
	return c
}

// Len returns the number of distinct values.
func (d *Distribution) Len() int { return len(d.values) }

// Values returns the distinct value codes in first-occurrence order. Callers must not modify it.
func (d *Distribution) Values() []int32 { return d.values }

// Frequencies returns the frequencies aligned with Values. Callers must not modify it.
func (d *Distribution) Frequencies() []int32 { return d.freqs }

// Frequency returns the frequency of v, 0 when absent.
func (d *Distribution) Frequency(v int32) int {
	if i := d.find(v); i >= 0 {
		return int(d.freqs[i])
	}
	return 0
}

// Total returns the sum of all frequencies.
func (d *Distribution) Total() int {
	t := 0
	for _, f := range d.freqs {
		t += int(f)
	}
	return t
}

// Sorted returns copies of the pairs ordered by value code.
func (d *Distribution) Sorted() (values, freqs []int32) {
	order := make([]int, len(d.values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return d.values[order[a]] < d.values[order[b]] })

	values = make([]int32, len(order))
	freqs = make([]int32, len(order))
	for i, o := range order {
		values[i] = d.values[o]
		freqs[i] = d.freqs[o]
	}
	return values, freqs
}
