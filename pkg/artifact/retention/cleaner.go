package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/telemetry/tracing"
)

// DefaultDeleteConcurrency is the number of packages deleted at once.
const DefaultDeleteConcurrency = 4

// Result is a decision together with what the run did about it.
type Result struct {
	Decision
	Outcome Outcome       `json:"outcome"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// Summary describes one cleaning run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Listed   int `json:"listed"`
	Kept     int `json:"kept"`
	ToDelete int `json:"to_delete"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`

	Results []Result `json:"results"`
}

// Journal persists run summaries.
type Journal interface {
	RecordRun(ctx context.Context, summary *Summary) error
}

// Observer receives run events, e.g. for metrics.
type Observer interface {
	ObserveDecision(d Decision)
	ObserveDeletion(outcome Outcome, elapsed time.Duration)
	ObserveRun(summary *Summary)
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithRunID sets the run identifier. A random UUID is used otherwise.
func WithRunID(id string) Option {
	return func(c *Cleaner) {
		c.runID = id
	}
}

// WithConcurrency bounds concurrent deletions.
func WithConcurrency(n int) Option {
	return func(c *Cleaner) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDeleteRate limits deletions to perSecond packages per second.
// Zero or negative means unlimited.
func WithDeleteRate(perSecond float64) Option {
	return func(c *Cleaner) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithJournal records every run summary.
func WithJournal(j Journal) Option {
	return func(c *Cleaner) {
		c.journal = j
	}
}

// WithObserver reports run events. It may be given more than once; events
// reach observers in the order they were added.
func WithObserver(o Observer) Option {
	return func(c *Cleaner) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		c.now = now
	}
}

// WithTracer records spans for listing and for each deletion.
func WithTracer(t trace.Tracer) Option {
	return func(c *Cleaner) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Cleaner lists stored packages, decides each one, and applies the
// decisions according to its mode.
type Cleaner struct {
	lister  artifact.Lister
	deleter artifact.Deleter
	engine  *Engine
	mode    Mode

	runID       string
	concurrency int
	limiter     *rate.Limiter
	journal     Journal
	observers   []Observer
	now         func() time.Time
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewCleaner creates a cleaner. deleter is never called in ModeDryRun.
func NewCleaner(lister artifact.Lister, deleter artifact.Deleter, engine *Engine, mode Mode, opts ...Option) *Cleaner {
	c := &Cleaner{
		lister:      lister,
		deleter:     deleter,
		engine:      engine,
		mode:        mode,
		runID:       uuid.New().String(),
		concurrency: DefaultDeleteConcurrency,
		now:         time.Now,
		tracer:      noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = slog.Default().With(
		"component", "artifact.retention",
		"run_id", c.runID,
		"mode", string(c.mode),
	)

	return c
}

// RunID returns the identifier of the run.
func (c *Cleaner) RunID() string {
	return c.runID
}

// Clean runs one pass over storage.
//
// A listing failure aborts the run before anything is deleted. Deletion
// failures do not stop the run: every Delete decision is attempted and the
// returned error wraps artifact.ErrDeletionFailed when any of them failed.
// The summary is returned whenever listing succeeded.
func (c *Cleaner) Clean(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     c.runID,
		Mode:      c.mode,
		StartedAt: c.now(),
	}

	c.logger.InfoContext(ctx, "cleaning started")

	packages, err := c.listPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	summary.Listed = len(packages)

	results := make([]Result, len(packages))
	var toDelete []int
	for i, pkg := range packages {
		d := c.engine.Explain(pkg)
		results[i] = Result{Decision: d, Outcome: OutcomeKept}
		c.observe(func(o Observer) { o.ObserveDecision(d) })

		if d.Action == artifact.Delete {
			toDelete = append(toDelete, i)
			continue
		}
		c.logDecision(d, "keeping package")
	}
	summary.ToDelete = len(toDelete)

	if c.mode == ModeDryRun {
		for _, i := range toDelete {
			results[i].Outcome = OutcomeWouldDelete
			c.logDecision(results[i].Decision, "dry run: would delete package")
		}
	} else {
		c.deleteAll(ctx, results, toDelete)
	}

	for _, r := range results {
		switch r.Outcome {
		case OutcomeKept:
			summary.Kept++
		case OutcomeDeleted:
			summary.Deleted++
		case OutcomeFailed:
			summary.Failed++
		}
	}
	summary.Results = results
	summary.FinishedAt = c.now()

	if c.journal != nil {
		if err := c.journal.RecordRun(ctx, summary); err != nil {
			c.logger.ErrorContext(ctx, "failed to journal run", "error", err)
		}
	}
	c.observe(func(o Observer) { o.ObserveRun(summary) })

	c.logger.InfoContext(ctx, "cleaning completed",
		"listed", summary.Listed,
		"kept", summary.Kept,
		"to_delete", summary.ToDelete,
		"deleted", summary.Deleted,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d packages", artifact.ErrDeletionFailed, summary.Failed, summary.ToDelete)
	}
	return summary, nil
}

func (c *Cleaner) listPackages(ctx context.Context) ([]artifact.Package, error) {
	ctx, span := c.tracer.Start(ctx, "storage.list")
	defer span.End()

	packages, err := c.lister.Packages(ctx)
	if err == nil {
		span.SetAttributes(tracing.AttrListed.Int(len(packages)))
	}
	tracing.SetStatus(span, err)
	return packages, err
}

// deleteAll deletes the packages at the given indexes. Each goroutine
// writes only its own result slot.
func (c *Cleaner) deleteAll(ctx context.Context, results []Result, indexes []int) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, i := range indexes {
		g.Go(func() error {
			c.deleteOne(ctx, &results[i])
			return nil
		})
	}

	_ = g.Wait()
}

func (c *Cleaner) deleteOne(ctx context.Context, r *Result) {
	ctx, span := c.tracer.Start(ctx, "package.delete", trace.WithAttributes(tracing.PackageAttributes(r.Package)...))
	span.SetAttributes(tracing.DecisionAttributes(r.Action, string(r.Reason), r.Rule)...)
	defer span.End()

	start := time.Now()

	err := c.waitTurn(ctx)
	if err == nil {
		err = c.deleter.Delete(ctx, r.Package)
	}
	r.Elapsed = time.Since(start)

	if err != nil {
		derr := &artifact.DeletionError{Package: r.Package, Cause: err}
		r.Outcome = OutcomeFailed
		r.Error = derr.Error()
		c.logger.Error("failed to delete package",
			"package", r.Package.String(),
			"reason", string(r.Reason),
			"error", err,
		)
	} else {
		r.Outcome = OutcomeDeleted
		c.logDecision(r.Decision, "package deleted")
	}
	span.SetAttributes(tracing.AttrOutcome.String(string(r.Outcome)))
	tracing.SetStatus(span, err)

	c.observe(func(o Observer) { o.ObserveDeletion(r.Outcome, r.Elapsed) })
}

func (c *Cleaner) waitTurn(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	return c.limiter.Wait(ctx)
}

func (c *Cleaner) logDecision(d Decision, msg string) {
	attrs := []any{
		"package", d.Package.String(),
		"created", d.Package.CreationDate,
		"reason", string(d.Reason),
	}
	if d.Rule != "" {
		attrs = append(attrs, "rule", d.Rule)
	}

	level := slog.LevelInfo
	if c.mode == ModeLive && d.Action == artifact.Keep {
		level = slog.LevelDebug
	}
	c.logger.Log(context.Background(), level, msg, attrs...)
}

// observe calls fn for each observer. Deletions run concurrently, so
// observers must be safe for concurrent use.
func (c *Cleaner) observe(fn func(Observer)) {
	for _, o := range c.observers {
		fn(o)
	}
}
