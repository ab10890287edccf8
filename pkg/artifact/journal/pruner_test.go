package journal

import (
	"context"
	"testing"
	"time"
)

func recordRuns(t *testing.T, j *Journal, starts map[string]time.Time) {
	t.Helper()
	for id, started := range starts {
		if err := j.RecordRun(context.Background(), testSummary(id, started)); err != nil {
			t.Fatalf("RecordRun(%s) error = %v", id, err)
		}
	}
}

func runIDs(t *testing.T, j *Journal) []string {
	t.Helper()
	runs, err := j.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestPruner_Prune(t *testing.T) {
	now := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	starts := map[string]time.Time{
		"old-1":    now.AddDate(0, 0, -10),
		"old-2":    now.AddDate(0, 0, -8),
		"recent-1": now.AddDate(0, 0, -5),
		"recent-2": now.AddDate(0, 0, -3),
		"recent-3": now.AddDate(0, 0, -1),
	}

	tests := []struct {
		name        string
		config      PruneConfig
		wantDeleted int64
		wantRuns    []string
	}{
		{
			name:        "no limits",
			config:      PruneConfig{},
			wantDeleted: 0,
			wantRuns:    []string{"recent-3", "recent-2", "recent-1", "old-2", "old-1"},
		},
		{
			name:        "by age",
			config:      PruneConfig{RetentionDays: 7},
			wantDeleted: 2,
			wantRuns:    []string{"recent-3", "recent-2", "recent-1"},
		},
		{
			name:        "by count",
			config:      PruneConfig{MaxRuns: 2},
			wantDeleted: 3,
			wantRuns:    []string{"recent-3", "recent-2"},
		},
		{
			name:        "age then count",
			config:      PruneConfig{RetentionDays: 7, MaxRuns: 1},
			wantDeleted: 4,
			wantRuns:    []string{"recent-3"},
		},
		{
			name:        "count above total",
			config:      PruneConfig{MaxRuns: 10},
			wantDeleted: 0,
			wantRuns:    []string{"recent-3", "recent-2", "recent-1", "old-2", "old-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJournal(t)
			recordRuns(t, j, starts)

			p := NewPruner(j, tt.config)
			p.now = func() time.Time { return now }

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("Prune() deleted %d runs, want %d", deleted, tt.wantDeleted)
			}

			got := runIDs(t, j)
			if len(got) != len(tt.wantRuns) {
				t.Fatalf("remaining runs = %v, want %v", got, tt.wantRuns)
			}
			for i := range got {
				if got[i] != tt.wantRuns[i] {
					t.Errorf("remaining runs = %v, want %v", got, tt.wantRuns)
					break
				}
			}
		})
	}
}

func TestPruner_DeletesEntries(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	recordRuns(t, j, map[string]time.Time{
		"old": now.AddDate(0, 0, -30),
		"new": now,
	})

	p := NewPruner(j, PruneConfig{RetentionDays: 7})
	p.now = func() time.Time { return now }
	if _, err := p.Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	entries, err := j.Entries(ctx, "old")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("pruned run kept %d entries", len(entries))
	}
	if entries, _ := j.Entries(ctx, "new"); len(entries) != 3 {
		t.Errorf("kept run has %d entries, want 3", len(entries))
	}
}

func TestPruneConfig_Enabled(t *testing.T) {
	tests := []struct {
		config PruneConfig
		want   bool
	}{
		{PruneConfig{}, false},
		{PruneConfig{RetentionDays: 1}, true},
		{PruneConfig{MaxRuns: 1}, true},
	}
	for _, tt := range tests {
		if got := tt.config.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.config, got, tt.want)
		}
	}
}

func TestJournal_DeleteAllButNewestNegative(t *testing.T) {
	j := newTestJournal(t)
	if _, err := j.DeleteAllButNewest(context.Background(), -1); err == nil {
		t.Error("DeleteAllButNewest(-1) should fail")
	}
}
