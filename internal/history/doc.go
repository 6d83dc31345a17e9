// Package history caches snapshots of equivalence class tables so a search
// can restore a previously evaluated node instead of recomputing it.
//
// The cache is bounded in classes, not bytes. The total budget is a fraction
// of the dataset's rows, a single snapshot may use at most a fraction of that
// total, and the number of snapshots is capped. When a store exceeds the
// budget the largest snapshots go first, then the oldest, so many small,
// cheap to restore snapshots survive. Caching is an optimization only: a table
// that does not fit is silently not stored.
package history
