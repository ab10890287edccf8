package retention

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/rules"
	"mercator-hq/storage-helper/pkg/artifact/storage"
	"mercator-hq/storage-helper/pkg/telemetry/tracing"
)

type recordingDeleter struct {
	mu       sync.Mutex
	deleted  []string
	fail     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (d *recordingDeleter) Delete(ctx context.Context, p artifact.Package) error {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		prev := d.maxSeen.Load()
		if n <= prev || d.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	if err := d.fail[p.Key()]; err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, p.Key())
	return nil
}

type staticLister struct {
	packages []artifact.Package
	err      error
}

func (l staticLister) Packages(ctx context.Context) ([]artifact.Package, error) {
	return l.packages, l.err
}

type memoryJournal struct {
	runs []*Summary
	err  error
}

func (j *memoryJournal) RecordRun(ctx context.Context, s *Summary) error {
	j.runs = append(j.runs, s)
	return j.err
}

type countingObserver struct {
	mu        sync.Mutex
	decisions map[Reason]int
	deletions map[Outcome]int
	runs      int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		decisions: make(map[Reason]int),
		deletions: make(map[Outcome]int),
	}
}

func (o *countingObserver) ObserveDecision(d Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions[d.Reason]++
}

func (o *countingObserver) ObserveDeletion(outcome Outcome, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deletions[outcome]++
}

func (o *countingObserver) ObserveRun(s *Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

func fixturePackages() []artifact.Package {
	return []artifact.Package{
		pkg("a-app", "1.0.0", 48*time.Hour),
		pkg("a-app", "1.1.0-rc.1", time.Hour),
		pkg("b-app", "2.0.0", 48*time.Hour),
		pkg("c-app", "3.0.0", time.Hour),
	}
}

func fixtureEngine(t *testing.T) *Engine {
	chain := mustChain(t,
		rules.Definition{Name: "delete-rc", Action: "delete", VersionSelector: `-rc\.`},
	)
	// b-app is in use; c-app falls through to the default.
	return NewEngine(usedSet("b-app/2.0.0"), chain, artifact.Delete)
}

func TestCleaner_DryRunNeverDeletes(t *testing.T) {
	deleter := &recordingDeleter{}
	journal := &memoryJournal{}
	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, deleter, fixtureEngine(t), ModeDryRun,
		WithRunID("run-1"),
		WithJournal(journal),
	)

	summary, err := cleaner.Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if len(deleter.deleted) != 0 {
		t.Errorf("dry run deleted %v", deleter.deleted)
	}
	if summary.RunID != "run-1" || summary.Mode != ModeDryRun {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Listed != 4 || summary.Kept != 1 || summary.ToDelete != 3 || summary.Deleted != 0 {
		t.Errorf("counts: listed=%d kept=%d to_delete=%d deleted=%d", summary.Listed, summary.Kept, summary.ToDelete, summary.Deleted)
	}
	for _, r := range summary.Results {
		if r.Action == artifact.Delete && r.Outcome != OutcomeWouldDelete {
			t.Errorf("%s outcome = %s, want would_delete", r.Package, r.Outcome)
		}
	}
	if len(journal.runs) != 1 {
		t.Errorf("journal has %d runs, want 1", len(journal.runs))
	}
}

func TestCleaner_LiveDeletesDecidedPackages(t *testing.T) {
	deleter := &recordingDeleter{}
	observer := newCountingObserver()
	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, deleter, fixtureEngine(t), ModeLive,
		WithObserver(observer),
	)

	summary, err := cleaner.Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if len(deleter.deleted) != 3 {
		t.Errorf("deleted %v, want 3 packages", deleter.deleted)
	}
	for _, key := range deleter.deleted {
		if key == "b-app/2.0.0" {
			t.Error("package in use was deleted")
		}
	}
	if summary.Deleted != 3 || summary.Failed != 0 || summary.Kept != 1 {
		t.Errorf("counts: deleted=%d failed=%d kept=%d", summary.Deleted, summary.Failed, summary.Kept)
	}
	if summary.RunID == "" || summary.RunID != cleaner.RunID() {
		t.Errorf("RunID = %q, want generated id %q", summary.RunID, cleaner.RunID())
	}

	if observer.decisions[ReasonInUse] != 1 || observer.decisions[ReasonRule] != 1 || observer.decisions[ReasonDefault] != 2 {
		t.Errorf("observed decisions = %v", observer.decisions)
	}
	if observer.deletions[OutcomeDeleted] != 3 || observer.runs != 1 {
		t.Errorf("observed deletions = %v, runs = %d", observer.deletions, observer.runs)
	}
}

func TestCleaner_DeletionFailureIsBestEffort(t *testing.T) {
	deleter := &recordingDeleter{
		fail: map[string]error{"a-app/1.0.0": errors.New("permission denied")},
	}
	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, deleter, fixtureEngine(t), ModeLive)

	summary, err := cleaner.Clean(context.Background())
	if !errors.Is(err, artifact.ErrDeletionFailed) {
		t.Fatalf("Clean() error = %v, want ErrDeletionFailed", err)
	}
	if summary == nil {
		t.Fatal("Clean() returned no summary")
	}

	if summary.Failed != 1 || summary.Deleted != 2 {
		t.Errorf("counts: failed=%d deleted=%d", summary.Failed, summary.Deleted)
	}
	for _, r := range summary.Results {
		if r.Package.Key() == "a-app/1.0.0" {
			if r.Outcome != OutcomeFailed || r.Error == "" {
				t.Errorf("failed result = %+v", r)
			}
		}
	}
}

func TestCleaner_ListingFailureAborts(t *testing.T) {
	boom := artifact.NewStorageError("gcs", "list", errors.New("timeout"))
	deleter := &recordingDeleter{}
	journal := &memoryJournal{}
	cleaner := NewCleaner(staticLister{err: boom}, deleter, fixtureEngine(t), ModeLive, WithJournal(journal))

	summary, err := cleaner.Clean(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Clean() error = %v, want %v", err, boom)
	}
	if summary != nil || len(deleter.deleted) != 0 || len(journal.runs) != 0 {
		t.Error("a failed listing must not produce decisions")
	}
}

func TestCleaner_BoundedConcurrency(t *testing.T) {
	var packages []artifact.Package
	for _, v := range []string{"1", "2", "3", "4", "5", "6"} {
		packages = append(packages, pkg("app", v, time.Hour))
	}
	deleter := &recordingDeleter{delay: 10 * time.Millisecond}
	engine := NewEngine(usedSet(), nil, artifact.Delete)

	cleaner := NewCleaner(staticLister{packages: packages}, deleter, engine, ModeLive, WithConcurrency(2))
	if _, err := cleaner.Clean(context.Background()); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if len(deleter.deleted) != 6 {
		t.Errorf("deleted %d packages, want 6", len(deleter.deleted))
	}
	if max := deleter.maxSeen.Load(); max > 2 {
		t.Errorf("max concurrent deletions = %d, want <= 2", max)
	}
}

func TestCleaner_CanceledContextFailsDeletions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deleter := &recordingDeleter{}
	engine := NewEngine(usedSet(), nil, artifact.Delete)
	cleaner := NewCleaner(staticLister{packages: []artifact.Package{pkg("a", "1", time.Hour)}}, deleter, engine, ModeLive,
		WithDeleteRate(1),
	)

	summary, err := cleaner.Clean(ctx)
	if !errors.Is(err, artifact.ErrDeletionFailed) {
		t.Fatalf("Clean() error = %v, want ErrDeletionFailed", err)
	}
	if summary.Failed != 1 || len(deleter.deleted) != 0 {
		t.Errorf("failed=%d deleted=%v", summary.Failed, deleter.deleted)
	}
}

func TestCleaner_JournalErrorDoesNotFailRun(t *testing.T) {
	journal := &memoryJournal{err: errors.New("disk full")}
	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, &recordingDeleter{}, fixtureEngine(t), ModeDryRun,
		WithJournal(journal),
	)

	if _, err := cleaner.Clean(context.Background()); err != nil {
		t.Errorf("Clean() error = %v, want nil", err)
	}
}

func TestCleaner_Timestamps(t *testing.T) {
	ticks := []time.Time{testNow, testNow.Add(3 * time.Second)}
	var i int
	clock := func() time.Time {
		now := ticks[i]
		if i < len(ticks)-1 {
			i++
		}
		return now
	}

	cleaner := NewCleaner(staticLister{}, &recordingDeleter{}, NewEngine(nil, nil, artifact.Keep), ModeLive, WithClock(clock))
	summary, err := cleaner.Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if !summary.StartedAt.Equal(ticks[0]) || !summary.FinishedAt.Equal(ticks[1]) {
		t.Errorf("StartedAt=%v FinishedAt=%v", summary.StartedAt, summary.FinishedAt)
	}
}

func TestCleaner_WithStorageClient(t *testing.T) {
	backend := storage.NewMemoryBackend()
	created := testNow.Add(-24 * time.Hour)
	backend.Put("my-prefix/a-pack/1.0.0/app.js", created)
	backend.Put("my-prefix/a-pack/1.0.0/app.css", created)
	backend.Put("my-prefix/b-pack/4.2.0/app.js", created)

	client := storage.NewClient(backend, "my-prefix/")
	engine := NewEngine(usedSet("b-pack/4.2.0"), nil, artifact.Delete)

	summary, err := NewCleaner(client, client, engine, ModeLive).Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if summary.Deleted != 1 || summary.Kept != 1 {
		t.Errorf("counts: deleted=%d kept=%d", summary.Deleted, summary.Kept)
	}
	if backend.Len() != 1 {
		t.Errorf("%d objects left, want 1 (b-pack)", backend.Len())
	}
}

func TestCleaner_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	deleter := &recordingDeleter{
		fail: map[string]error{"a-app/1.0.0": errors.New("permission denied")},
	}
	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, deleter, fixtureEngine(t), ModeLive,
		WithTracer(provider.Tracer("test")),
	)
	if _, err := cleaner.Clean(context.Background()); !errors.Is(err, artifact.ErrDeletionFailed) {
		t.Fatalf("Clean() error = %v, want ErrDeletionFailed", err)
	}

	byName := make(map[string][]tracetest.SpanStub)
	for _, s := range exporter.GetSpans() {
		byName[s.Name] = append(byName[s.Name], s)
	}

	if len(byName["storage.list"]) != 1 {
		t.Fatalf("storage.list spans = %d, want 1", len(byName["storage.list"]))
	}
	deletes := byName["package.delete"]
	if len(deletes) != 3 {
		t.Fatalf("package.delete spans = %d, want 3", len(deletes))
	}

	var failed int
	for _, s := range deletes {
		var name, outcome string
		for _, kv := range s.Attributes {
			switch kv.Key {
			case tracing.AttrPackageName:
				name = kv.Value.AsString()
			case tracing.AttrOutcome:
				outcome = kv.Value.AsString()
			}
		}
		if name == "" {
			t.Error("delete span without package name")
		}
		if s.Status.Code == codes.Error {
			failed++
			if outcome != string(OutcomeFailed) {
				t.Errorf("failed span outcome = %q", outcome)
			}
		}
	}
	if failed != 1 {
		t.Errorf("error spans = %d, want 1", failed)
	}
}

func TestCleaner_DryRunHasNoDeleteSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	cleaner := NewCleaner(staticLister{packages: fixturePackages()}, &recordingDeleter{}, fixtureEngine(t), ModeDryRun,
		WithTracer(provider.Tracer("test")),
	)
	if _, err := cleaner.Clean(context.Background()); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "storage.list" {
		t.Errorf("spans = %v, want only storage.list", spans.Snapshots())
	}
}
