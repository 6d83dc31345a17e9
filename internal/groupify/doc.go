// Package groupify groups generalized records into equivalence classes.
//
// A Table maps a generalized row signature to its Class: the number of rows
// sharing the signature, the lowest row index (the representative used for
// roll-ups), a speculative suppression flag, and one value/frequency
// Distribution per analyzed column. Classes are kept in insertion order in a
// slice and indexed by an open-addressing hash table with linear probing, so
// iteration and merges are deterministic.
//
// A Table is not safe for concurrent use. Parallel transformations build one
// partial table per worker and fold them into the target with MergeFrom.
package groupify
