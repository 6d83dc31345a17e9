package lattice

import "github.com/bits-and-blooms/bitset"

// EmptyProjection returns a projection with no columns set.
func EmptyProjection(dims int) *bitset.BitSet {
	return bitset.New(uint(dims))
}

// EqualColumns returns the columns whose levels are identical in a and b.
// Both transformations must have the same dimensionality.
func EqualColumns(a, b *Transformation) *bitset.BitSet {
	p := bitset.New(uint(len(a.levels)))
	for i, l := range a.levels {
		if l == b.levels[i] {
			p.Set(uint(i))
		}
	}
	return p
}

// ActiveColumns lists the columns not covered by the projection, in order.
// These are the columns whose generalized codes must be recomputed.
func ActiveColumns(projection *bitset.BitSet, dims int) []int {
	active := make([]int, 0, dims)
	for i := 0; i < dims; i++ {
		if projection == nil || !projection.Test(uint(i)) {
			active = append(active, i)
		}
	}
	return active
}
