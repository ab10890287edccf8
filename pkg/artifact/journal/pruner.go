package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PruneConfig bounds how much history the journal keeps.
type PruneConfig struct {
	// RetentionDays drops runs that started more than this many days ago.
	// 0 keeps runs forever.
	RetentionDays int

	// MaxRuns keeps at most this many runs. 0 means unlimited.
	MaxRuns int
}

// Enabled reports whether any limit is set.
func (c PruneConfig) Enabled() bool {
	return c.RetentionDays > 0 || c.MaxRuns > 0
}

// Pruner enforces the journal history limits.
type Pruner struct {
	journal *Journal
	config  PruneConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewPruner creates a pruner for j.
func NewPruner(j *Journal, config PruneConfig) *Pruner {
	return &Pruner{
		journal: j,
		config:  config,
		now:     time.Now,
		logger:  slog.Default().With("component", "artifact.journal"),
	}
}

// Prune deletes old runs and returns how many were deleted.
//
// Pruning happens in two phases:
// 1. Age-based: delete runs that started before now minus retention_days
// 2. Count-based: keep only the max_runs most recent runs
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.journal.DeleteRunsBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.DebugContext(ctx, "pruned runs by age",
			"deleted_count", deleted,
			"cutoff_time", cutoff,
		)
	}

	if p.config.MaxRuns > 0 {
		deleted, err := p.journal.DeleteAllButNewest(ctx, p.config.MaxRuns)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.logger.DebugContext(ctx, "pruned runs by count",
			"deleted_count", deleted,
			"max_runs", p.config.MaxRuns,
		)
	}

	if total > 0 {
		p.logger.InfoContext(ctx, "journal pruned",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_runs", p.config.MaxRuns,
		)
	}
	return total, nil
}
