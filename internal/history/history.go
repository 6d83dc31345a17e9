package history

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

// Budget bounds the memory held by stored snapshots, measured in classes.
type Budget struct {
	// MaxEntries is the maximal number of snapshots.
	MaxEntries int `yaml:"max_entries" json:"max_entries" validate:"gte=0"`
	// DatasetFraction bounds the classes of all snapshots relative to the dataset rows.
	DatasetFraction float64 `yaml:"dataset_fraction" json:"dataset_fraction" validate:"gte=0,lte=1"`
	// SnapshotFraction bounds a single snapshot relative to the total budget.
	SnapshotFraction float64 `yaml:"snapshot_fraction" json:"snapshot_fraction" validate:"gte=0,lte=1"`
	// AncestorLookup allows restoring from a snapshot of a less general node.
	AncestorLookup bool `yaml:"ancestor_lookup" json:"ancestor_lookup"`
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() Budget {
	return Budget{
		MaxEntries:       200,
		DatasetFraction:  0.2,
		SnapshotFraction: 0.8,
	}
}

// Stats describes the current content and lifetime counters of a History.
type Stats struct {
	Entries    int `json:"entries"`
	Classes    int `json:"classes"`
	MaxClasses int `json:"max_classes"`
	Hits       int `json:"hits"`
	Misses     int `json:"misses"`
	Stores     int `json:"stores"`
	Skips      int `json:"skips"`
	Evictions  int `json:"evictions"`
}

type entry struct {
	snap *Snapshot
	seq  uint64
}

// History caches snapshots of equivalence class tables keyed by transformation.
//
// It is owned by one checker and used from a single goroutine.
type History struct {
	budget      Budget
	maxClasses  int
	maxSnapshot int

	entries map[string]*entry
	seq     uint64
	classes int
	stats   Stats

	logger *slog.Logger
}

// New creates an empty history for a dataset of rows records.
func New(b Budget, rows int, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{entries: make(map[string]*entry), logger: logger}
	h.SetBudget(b, rows)
	return h
}

// SetBudget reconfigures the history and clears it. Fractions are clamped to
// [0, 1] and a negative entry count to 0, which disables storage.
func (h *History) SetBudget(b Budget, rows int) {
	b.MaxEntries = max(b.MaxEntries, 0)
	b.DatasetFraction = clampFraction(b.DatasetFraction)
	b.SnapshotFraction = clampFraction(b.SnapshotFraction)
	rows = max(rows, 0)

	h.budget = b
	h.maxClasses = int(b.DatasetFraction * float64(rows))
	h.maxSnapshot = int(b.SnapshotFraction * float64(h.maxClasses))
	h.Reset()
}

func clampFraction(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(f, 1)
}

// Budget returns the active budget.
func (h *History) Budget() Budget { return h.budget }

// Reset drops every snapshot. Lifetime counters are kept.
func (h *History) Reset() {
	if h.classes > 0 {
		recordEviction(context.Background(), h.classes, "reset")
	}
	clear(h.entries)
	h.classes = 0
	h.seq = 0
}

// Size returns the number of stored snapshots.
func (h *History) Size() int { return len(h.entries) }

// Get returns the snapshot stored for exactly t.
func (h *History) Get(ctx context.Context, t *lattice.Transformation) (*Snapshot, bool) {
	e, ok := h.entries[t.Key()]
	h.count(ctx, ok, "exact")
	if !ok {
		return nil, false
	}
	return e.snap, true
}

// GetAncestor returns the smallest snapshot of a node that t generalizes, or
// false when ancestor lookup is disabled or nothing matches. Ties go to the
// oldest snapshot.
func (h *History) GetAncestor(ctx context.Context, t *lattice.Transformation) (*Snapshot, bool) {
	if !h.budget.AncestorLookup {
		return nil, false
	}
	var best *entry
	for _, e := range h.entries {
		node := e.snap.Transformation()
		if node.Equal(t) || !t.GeneralizesAtLeast(node) {
			continue
		}
		if best == nil || e.snap.Size() < best.snap.Size() ||
			(e.snap.Size() == best.snap.Size() && e.seq < best.seq) {
			best = e
		}
	}
	h.count(ctx, best != nil, "ancestor")
	if best == nil {
		return nil, false
	}
	return best.snap, true
}

func (h *History) count(ctx context.Context, hit bool, kind string) {
	if hit {
		h.stats.Hits++
	} else {
		h.stats.Misses++
	}
	recordLookup(ctx, hit, kind)
}

// Store snapshots table under t and evicts until the budget holds again. The
// snapshot of protect is never evicted by this call. Tables above the single
// snapshot limit are not stored; Store then returns false.
func (h *History) Store(ctx context.Context, t *lattice.Transformation, table *groupify.Table, protect *lattice.Transformation) bool {
	if t == nil || table == nil {
		return false
	}
	if _, ok := h.entries[t.Key()]; ok {
		return true
	}
	if h.budget.MaxEntries <= 0 || table.Size() > h.maxSnapshot {
		h.stats.Skips++
		recordSkip(ctx)
		h.logger.Debug("snapshot skipped", "transformation", t.String(),
			"classes", table.Size(), "limit", h.maxSnapshot)
		return false
	}

	snap := NewSnapshot(t, table)
	h.seq++
	h.entries[t.Key()] = &entry{snap: snap, seq: h.seq}
	h.classes += snap.Size()
	h.stats.Stores++
	recordStore(ctx, snap.Size())

	var keep string
	if protect != nil {
		keep = protect.Key()
	}
	h.evict(ctx, keep)

	_, stored := h.entries[t.Key()]
	return stored
}

// evict drops the largest snapshots while the class budget is exceeded, then
// the oldest while the entry budget is exceeded.
func (h *History) evict(ctx context.Context, keep string) {
	if h.classes <= h.maxClasses && len(h.entries) <= h.budget.MaxEntries {
		return
	}

	candidates := make([]string, 0, len(h.entries))
	for k := range h.entries {
		if k != keep {
			candidates = append(candidates, k)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := h.entries[candidates[i]], h.entries[candidates[j]]
		if a.snap.Size() != b.snap.Size() {
			return a.snap.Size() > b.snap.Size()
		}
		return a.seq < b.seq
	})
	for len(candidates) > 0 && h.classes > h.maxClasses {
		h.remove(ctx, candidates[0], "size")
		candidates = candidates[1:]
	}

	sort.Slice(candidates, func(i, j int) bool {
		return h.entries[candidates[i]].seq < h.entries[candidates[j]].seq
	})
	for len(candidates) > 0 && len(h.entries) > h.budget.MaxEntries {
		h.remove(ctx, candidates[0], "count")
		candidates = candidates[1:]
	}
}

func (h *History) remove(ctx context.Context, key, reason string) {
	e := h.entries[key]
	delete(h.entries, key)
	h.classes -= e.snap.Size()
	h.stats.Evictions++
	recordEviction(ctx, e.snap.Size(), reason)
	h.logger.Debug("snapshot evicted", "transformation", e.snap.Transformation().String(),
		"classes", e.snap.Size(), "reason", reason)
}

// Stats returns the current accounting.
func (h *History) Stats() Stats {
	s := h.stats
	s.Entries = len(h.entries)
	s.Classes = h.classes
	s.MaxClasses = h.maxClasses
	return s
}

// Transformations lists the stored nodes, oldest first.
func (h *History) Transformations() []*lattice.Transformation {
	es := make([]*entry, 0, len(h.entries))
	for _, e := range h.entries {
		es = append(es, e)
	}
	sort.Slice(es, func(i, j int) bool { return es[i].seq < es[j].seq })
	out := make([]*lattice.Transformation, len(es))
	for i, e := range es {
		out[i] = e.snap.Transformation()
	}
	return out
}
