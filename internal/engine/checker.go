package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/history"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
)

var tracer = otel.Tracer("arx.engine")

// Metric measures the information loss of a grouped table.
type Metric interface {
	// InformationLoss returns the loss of t and a lower bound for its
	// specializations.
	InformationLoss(t *lattice.Transformation, table *groupify.Table) (loss, bound float64)
	// LowerBound is the cheaper estimate used when the loss is not needed.
	LowerBound(t *lattice.Transformation, table *groupify.Table) float64
}

// StorageTrigger selects which evaluated tables are snapshotted.
type StorageTrigger string

const (
	// TriggerAll snapshots every evaluated table.
	TriggerAll StorageTrigger = "all"
	// TriggerNotAnonymous snapshots only tables that failed the privacy model.
	TriggerNotAnonymous StorageTrigger = "not_anonymous"
)

// Options configure a Checker.
type Options struct {
	Model  groupify.Model
	Metric Metric
	// SuppressionAlwaysEnabled keeps suppression markings of non-anonymous tables.
	SuppressionAlwaysEnabled bool
	History                  history.Budget
	Trigger                  StorageTrigger
	Transformer              TransformerConfig
	Table                    groupify.Config
	Microaggregation         []groupify.Microaggregation
	Logger                   *slog.Logger
}

// Output is a materialized transformation.
type Output struct {
	// Generalized holds one code per quasi-identifier, decoded by the dataset's dictionaries.
	Generalized *dataset.Matrix
	// Microaggregated holds one column per configured microaggregation.
	Microaggregated              *dataset.Matrix
	MicroaggregationDictionaries []*dataset.Dictionary
	// MicroaggregatedHeader names the analyzed column behind each output column.
	MicroaggregatedHeader []string
	Result                       *lattice.Result
}

// Checker evaluates transformations for a search, reusing work between
// successive nodes through roll-ups and stored snapshots.
//
// A Checker serves one logical caller. Calls are serialized.
type Checker struct {
	mu sync.Mutex

	data        *dataset.Dataset
	opts        Options
	history     *history.History
	machine     *StateMachine
	transformer *Transformer

	// current reflects currentNode; last is scratch space for the next swap.
	current     *groupify.Table
	last        *groupify.Table
	currentNode *lattice.Transformation
	buffer      *dataset.Buffer

	runID  string
	logger *slog.Logger
}

// NewChecker creates a checker for one search over data.
func NewChecker(data *dataset.Dataset, opts Options) (*Checker, error) {
	if data == nil {
		return nil, ErrNoDataset
	}
	if opts.Model.Predicate == nil {
		return nil, ErrNoPredicate
	}
	if opts.Metric == nil {
		return nil, ErrNoMetric
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerAll
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := history.New(opts.History, data.Rows(), opts.Logger.With("component", "history"))
	c := &Checker{
		data:        data,
		opts:        opts,
		history:     h,
		machine:     NewStateMachine(data.Dimensions(), h),
		transformer: NewTransformer(data, opts.Transformer),
		current:     groupify.New(data.Dimensions(), data.Analyzed(), opts.Table),
		last:        groupify.New(data.Dimensions(), data.Analyzed(), opts.Table),
		buffer:      dataset.NewBuffer(data.Rows(), data.Dimensions()),
		runID:       uuid.NewString(),
	}
	c.logger = opts.Logger.With("component", "checker", "run_id", c.runID)
	return c, nil
}

// History returns the snapshot cache.
func (c *Checker) History() *history.History { return c.history }

// HistoryStats returns the cache counters and the stored nodes, oldest first.
// Unlike History it is safe to call while another goroutine checks.
func (c *Checker) HistoryStats() (history.Stats, []*lattice.Transformation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Stats(), c.history.Transformations()
}

// Dataset returns the input data.
func (c *Checker) Dataset() *dataset.Dataset { return c.data }

// RunID identifies the current search in logs and traces.
func (c *Checker) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Reset clears all state so an independent search can start.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machine.Reset()
	c.history.Reset()
	c.current.Clear()
	c.last.Clear()
	c.currentNode = nil
	c.buffer.Invalidate()

	previous := c.runID
	c.runID = uuid.NewString()
	c.logger = c.opts.Logger.With("component", "checker", "run_id", c.runID)
	c.logger.Info("checker reset", "previous_run_id", previous)
}

func (c *Checker) validate(t *lattice.Transformation) error {
	if t.Dimensions() != c.data.Dimensions() {
		return fmt.Errorf("transformation %s has %d levels, want %d: %w",
			t, t.Dimensions(), c.data.Dimensions(), lattice.ErrDimensionMismatch)
	}
	for col, l := range t.Levels() {
		if l < 0 || l > c.data.MaxLevels()[col] {
			return fmt.Errorf("transformation %s column %d: %w", t, col, lattice.ErrLevelOutOfRange)
		}
	}
	return nil
}

func (c *Checker) startSpan(ctx context.Context, name string, t *lattice.Transformation) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Checker."+name,
		trace.WithAttributes(
			attribute.String("checker.run_id", c.runID),
			attribute.String("checker.transformation", t.String()),
		),
	)
}

func fail(span trace.Span, err error) {
	checkErrors.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Check evaluates t. A node that already carries a result returns it as is.
// Loss is computed only for fulfilled nodes unless forceMeasureInfoLoss is
// set; the lower bound is always computed.
func (c *Checker) Check(ctx context.Context, t *lattice.Transformation, forceMeasureInfoLoss bool) (*lattice.Result, error) {
	r, _, err := c.CheckCached(ctx, t, forceMeasureInfoLoss)
	return r, err
}

// CheckCached is Check that also reports whether the result was memoized
// before the call. The memo is read under the checker's lock.
func (c *Checker) CheckCached(ctx context.Context, t *lattice.Transformation, forceMeasureInfoLoss bool) (*lattice.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validate(t); err != nil {
		return nil, false, err
	}
	if r := t.Result(); r != nil {
		memoHits.Inc()
		return r, true, nil
	}

	ctx, span := c.startSpan(ctx, "Check", t)
	defer span.End()
	start := time.Now()

	c.storePrevious(ctx, t)

	plan, err := c.machine.Transition(ctx, t)
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	span.SetAttributes(attribute.String("checker.strategy", plan.Strategy.String()))

	if err := c.dispatch(t, plan); err != nil {
		c.abort()
		fail(span, err)
		return nil, false, fmt.Errorf("apply %s transformation %s: %w", plan.Strategy, t, err)
	}

	result, err := c.evaluate(t, forceMeasureInfoLoss, forceMeasureInfoLoss)
	if err != nil {
		c.abort()
		fail(span, err)
		return nil, false, err
	}
	t.SetResult(result)

	elapsed := time.Since(start)
	checksTotal.WithLabelValues(plan.Strategy.String(), strconv.FormatBool(result.PrivacyModelFulfilled)).Inc()
	checkDuration.WithLabelValues(plan.Strategy.String()).Observe(elapsed.Seconds())
	classesPerCheck.Observe(float64(c.current.Size()))
	span.SetAttributes(
		attribute.Bool("checker.fulfilled", result.PrivacyModelFulfilled),
		attribute.Int("checker.classes", c.current.Size()),
	)
	c.logger.Debug("transformation checked", "transformation", t.String(),
		"strategy", plan.Strategy.String(), "classes", c.current.Size(),
		"fulfilled", result.PrivacyModelFulfilled, "elapsed", elapsed)
	return result, false, nil
}

// storePrevious snapshots the table of the previously evaluated node. next
// is the node about to be looked up and is protected from eviction.
func (c *Checker) storePrevious(ctx context.Context, next *lattice.Transformation) {
	prev := c.currentNode
	if prev == nil {
		return
	}
	if c.opts.Trigger == TriggerNotAnonymous {
		if r := prev.Result(); r == nil || r.PrivacyModelFulfilled {
			return
		}
	}
	c.history.Store(ctx, prev, c.current, next)
}

// dispatch swaps the tables and builds the new current table per plan.
func (c *Checker) dispatch(t *lattice.Transformation, plan *Plan) error {
	c.current, c.last = c.last, c.current
	c.current.Clear()
	c.currentNode = nil

	var err error
	switch plan.Strategy {
	case StrategyFull:
		err = c.transformer.Apply(t, c.buffer, c.current, false)
	case StrategyRollup:
		c.buffer.Invalidate()
		err = c.transformer.ApplyRollup(t, plan.Projection, c.last, c.current)
	case StrategySnapshot:
		c.buffer.Invalidate()
		err = c.transformer.ApplySnapshot(t, plan.Snapshot, c.current)
	default:
		err = fmt.Errorf("unknown strategy %s", plan.Strategy)
	}
	if err != nil {
		return err
	}
	c.currentNode = t
	return nil
}

// abort drops state that no longer matches any node, so the next
// evaluation starts with a full scan.
func (c *Checker) abort() {
	c.machine.Reset()
	c.current.Clear()
	c.currentNode = nil
	c.buffer.Invalidate()
}

// evaluate analyzes the current table and measures its loss.
func (c *Checker) evaluate(t *lattice.Transformation, forceFullAnalysis, forceLoss bool) (*lattice.Result, error) {
	analysis, err := c.current.Analyze(t, forceFullAnalysis, c.opts.Model)
	if err != nil {
		return nil, err
	}
	if !analysis.PrivacyModelFulfilled && !c.opts.SuppressionAlwaysEnabled {
		c.current.ResetSuppression()
	}

	result := &lattice.Result{
		PrivacyModelFulfilled:     analysis.PrivacyModelFulfilled,
		MinimalClassSizeFulfilled: analysis.MinimalClassSizeFulfilled,
	}
	if analysis.PrivacyModelFulfilled || forceLoss {
		loss, bound := c.opts.Metric.InformationLoss(t, c.current)
		result.InformationLoss = &loss
		result.LowerBound = &bound
	} else {
		bound := c.opts.Metric.LowerBound(t, c.current)
		result.LowerBound = &bound
	}
	return result, nil
}

// ApplyTransformation evaluates t with a full, row tracked scan and
// materializes the result: generalized rows with suppressed classes
// overwritten, plus the configured microaggregations. The returned matrices
// are copies owned by the caller.
func (c *Checker) ApplyTransformation(ctx context.Context, t *lattice.Transformation) (*Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validate(t); err != nil {
		return nil, err
	}
	ctx, span := c.startSpan(ctx, "ApplyTransformation", t)
	defer span.End()

	c.storePrevious(ctx, t)
	c.machine.Force(t)

	c.current, c.last = c.last, c.current
	c.current.Clear()
	if err := c.transformer.Apply(t, c.buffer, c.current, true); err != nil {
		c.abort()
		fail(span, err)
		return nil, fmt.Errorf("apply transformation %s: %w", t, err)
	}
	c.currentNode = t

	result, err := c.evaluate(t, true, true)
	if err != nil {
		c.abort()
		fail(span, err)
		return nil, err
	}
	if !t.Checked() {
		t.SetResult(result)
	}

	if result.PrivacyModelFulfilled || c.opts.SuppressionAlwaysEnabled {
		if err := c.current.PerformSuppression(c.buffer, c.data.SuppressionCodes()); err != nil {
			c.abort()
			fail(span, err)
			return nil, err
		}
	}
	out := &Output{Generalized: c.buffer.Clone(), Result: result}
	// suppressed rows no longer reflect t
	c.buffer.Invalidate()

	if len(c.opts.Microaggregation) > 0 {
		m, dicts, err := c.current.PerformMicroaggregation(c.opts.Microaggregation, c.data.AnalyzedDictionaries())
		if err != nil {
			fail(span, err)
			return nil, fmt.Errorf("microaggregate transformation %s: %w", t, err)
		}
		out.Microaggregated = m
		out.MicroaggregationDictionaries = dicts
		for _, agg := range c.opts.Microaggregation {
			out.MicroaggregatedHeader = append(out.MicroaggregatedHeader, c.data.AnalyzedHeader()[agg.Column])
		}
	}

	c.logger.Info("transformation applied", "transformation", t.String(),
		"classes", c.current.Size(), "outliers", c.current.Outliers(),
		"fulfilled", result.PrivacyModelFulfilled)
	return out, nil
}
