package cli

import (
	"fmt"
	"strconv"
	"time"

	"mercator-hq/storage-helper/pkg/artifact/journal"
	"mercator-hq/storage-helper/pkg/artifact/retention"
)

const timeLayout = time.RFC3339

// RunReport is the result of the clean command.
type RunReport struct {
	*retention.Summary
}

// Table lists every package decision of the run.
func (r RunReport) Table() *Table {
	s := r.Summary
	t := &Table{
		Title:   fmt.Sprintf("Run %s (%s)", s.RunID, s.Mode),
		Headers: []string{"PACKAGE", "VERSION", "CREATED", "ACTION", "REASON", "RULE", "OUTCOME", "ERROR"},
	}
	for _, res := range s.Results {
		t.Rows = append(t.Rows, []string{
			res.Package.Name,
			res.Package.Version,
			res.Package.CreationDate.UTC().Format(timeLayout),
			res.Action.String(),
			string(res.Reason),
			res.Rule,
			string(res.Outcome),
			res.Error,
		})
	}
	t.Footer = []string{
		fmt.Sprintf("Listed: %d  Kept: %d  To delete: %d  Deleted: %d  Failed: %d",
			s.Listed, s.Kept, s.ToDelete, s.Deleted, s.Failed),
		fmt.Sprintf("Duration: %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)),
	}
	if s.Mode == retention.ModeDryRun && s.ToDelete > 0 {
		t.Footer = append(t.Footer, "Dry run: nothing was deleted.")
	}
	return t
}

// HistoryReport is the result of the history command without --run.
type HistoryReport struct {
	Runs []*journal.Run `json:"runs"`
}

// Table lists one run per row, most recent first.
func (h HistoryReport) Table() *Table {
	t := &Table{
		Headers: []string{"RUN", "MODE", "STARTED", "DURATION", "LISTED", "KEPT", "TO DELETE", "DELETED", "FAILED"},
	}
	for _, run := range h.Runs {
		t.Rows = append(t.Rows, []string{
			run.ID,
			string(run.Mode),
			run.StartedAt.Format(timeLayout),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			strconv.Itoa(run.Listed),
			strconv.Itoa(run.Kept),
			strconv.Itoa(run.ToDelete),
			strconv.Itoa(run.Deleted),
			strconv.Itoa(run.Failed),
		})
	}
	if len(h.Runs) == 0 {
		t.Footer = []string{"No runs recorded."}
	}
	return t
}

// RunDetailReport is the result of the history command with --run.
type RunDetailReport struct {
	Run     *journal.Run     `json:"run"`
	Entries []*journal.Entry `json:"entries"`
}

// Table lists the stored decisions of one run.
func (d RunDetailReport) Table() *Table {
	t := &Table{
		Title:   fmt.Sprintf("Run %s (%s) started %s", d.Run.ID, d.Run.Mode, d.Run.StartedAt.Format(timeLayout)),
		Headers: []string{"PACKAGE", "VERSION", "CREATED", "ACTION", "REASON", "RULE", "OUTCOME", "ERROR"},
	}
	for _, e := range d.Entries {
		t.Rows = append(t.Rows, []string{
			e.Package.Name,
			e.Package.Version,
			e.Package.CreationDate.Format(timeLayout),
			e.Action,
			string(e.Reason),
			e.Rule,
			string(e.Outcome),
			e.Error,
		})
	}
	t.Footer = []string{
		fmt.Sprintf("Listed: %d  Kept: %d  To delete: %d  Deleted: %d  Failed: %d",
			d.Run.Listed, d.Run.Kept, d.Run.ToDelete, d.Run.Deleted, d.Run.Failed),
	}
	return t
}
