package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/retention"
)

// DeletionProgress renders a progress bar for the deletions of a live run.
// It implements retention.Observer and is safe for concurrent use.
type DeletionProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	failed  int64
	started time.Time
	writer  io.Writer
	now     func() time.Time
}

var _ retention.Observer = (*DeletionProgress)(nil)

// NewDeletionProgress creates a progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewDeletionProgress(w io.Writer) *DeletionProgress {
	if w == nil {
		w = os.Stderr
	}
	return &DeletionProgress{
		writer: w,
		now:    time.Now,
	}
}

// ObserveDecision counts packages decided Delete. Every decision of a run
// is observed before its first deletion.
func (p *DeletionProgress) ObserveDecision(d retention.Decision) {
	if d.Action != artifact.Delete {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		p.started = p.now()
	}
	p.total++
}

// ObserveDeletion advances the bar by one package.
func (p *DeletionProgress) ObserveDeletion(outcome retention.Outcome, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	if outcome == retention.OutcomeFailed {
		p.failed++
	}
	p.render()
}

// ObserveRun completes the bar.
func (p *DeletionProgress) ObserveRun(_ *retention.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 {
		return
	}
	fmt.Fprintln(p.writer)
	if p.failed > 0 {
		fmt.Fprintf(p.writer, "✗ %d of %d deletions failed\n", p.failed, p.total)
		return
	}
	fmt.Fprintf(p.writer, "✓ Deleted %d packages\n", p.current)
}

func (p *DeletionProgress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total) * 100
	barWidth := 40
	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var rate float64
	if elapsed := p.now().Sub(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rDeleting: [%s] %.1f%% (%d/%d) %.1f pkg/s",
		bar, percent, p.current, p.total, rate)
}
