// Package lattice holds the transformation vectors visited by a
// generalization lattice search.
//
// A Transformation is one node of the lattice: a generalization level per
// quasi-identifying column. Nodes are ordered componentwise, so A
// generalizes-at-least B iff every level of A is >= the matching level of B.
// Nodes are immutable once created and carry the memoized Result of their
// last check. A Space interns nodes by their level vector so callers that
// address nodes by value reach the same object (and therefore the memo).
package lattice
