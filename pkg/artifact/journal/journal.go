package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/artifact/retention"
)

// DefaultBusyTimeout is how long a writer waits for the database lock.
const DefaultBusyTimeout = 5 * time.Second

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored summary of one cleaning run.
type Run struct {
	ID         string         `json:"id"`
	Mode       retention.Mode `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Listed     int            `json:"listed"`
	Kept       int            `json:"kept"`
	ToDelete   int            `json:"to_delete"`
	Deleted    int            `json:"deleted"`
	Failed     int            `json:"failed"`
}

// Entry is the stored decision and outcome for one package of a run.
type Entry struct {
	RunID   string            `json:"run_id"`
	Package artifact.Package  `json:"package"`
	Action  string            `json:"action"`
	Reason  retention.Reason  `json:"reason"`
	Rule    string            `json:"rule,omitempty"`
	Outcome retention.Outcome `json:"outcome"`
	Error   string            `json:"error,omitempty"`
}

// Journal persists run summaries in SQLite. It implements retention.Journal.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	insertRunStmt   *sql.Stmt
	insertEntryStmt *sql.Stmt
	getRunStmt      *sql.Stmt
	listRunsStmt    *sql.Stmt
	listEntriesStmt *sql.Stmt
}

// Open opens or creates the journal database at path. The parent
// directory is created when missing.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, artifact.NewStorageError("sqlite", "open", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path, DefaultBusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, artifact.NewStorageError("sqlite", "open", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	j := &Journal{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "artifact.journal"),
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, artifact.NewStorageError("sqlite", "create_schema", err)
	}

	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, artifact.NewStorageError("sqlite", "prepare", err)
	}

	j.logger.Debug("journal opened", "path", path)

	return j, nil
}

func (j *Journal) prepareStatements() error {
	var err error

	j.insertRunStmt, err = j.db.Prepare(insertRunSQL)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	j.insertEntryStmt, err = j.db.Prepare(insertEntrySQL)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	j.getRunStmt, err = j.db.Prepare(selectRunSQL + ` WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	j.listRunsStmt, err = j.db.Prepare(selectRunSQL + ` ORDER BY started_at DESC, id LIMIT ?`)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	j.listEntriesStmt, err = j.db.Prepare(selectEntriesSQL)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	return nil
}

// RecordRun stores a run and all of its results in one transaction.
func (j *Journal) RecordRun(ctx context.Context, s *retention.Summary) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return artifact.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	_, err = tx.StmtContext(ctx, j.insertRunStmt).ExecContext(ctx,
		s.RunID, string(s.Mode),
		s.StartedAt.UnixNano(), s.FinishedAt.UnixNano(),
		s.Listed, s.Kept, s.ToDelete, s.Deleted, s.Failed,
	)
	if err != nil {
		return artifact.NewStorageError("sqlite", "insert_run", err)
	}

	insertEntry := tx.StmtContext(ctx, j.insertEntryStmt)
	for i, r := range s.Results {
		_, err := insertEntry.ExecContext(ctx,
			s.RunID, i,
			r.Package.Name, r.Package.Version, r.Package.CreationDate.UnixNano(),
			r.Action.String(), string(r.Reason), r.Rule,
			string(r.Outcome), r.Error,
		)
		if err != nil {
			return artifact.NewStorageError("sqlite", "insert_entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return artifact.NewStorageError("sqlite", "commit", err)
	}

	j.logger.Debug("run journaled", "run_id", s.RunID, "entries", len(s.Results))
	return nil
}

// Run returns the stored run with the given ID.
func (j *Journal) Run(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(j.getRunStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, artifact.NewStorageError("sqlite", "get_run", err)
	}
	return run, nil
}

// Runs returns up to limit runs, most recent first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := j.listRunsStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, artifact.NewStorageError("sqlite", "list_runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, artifact.NewStorageError("sqlite", "list_runs", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, artifact.NewStorageError("sqlite", "list_runs", err)
	}
	return runs, nil
}

// Entries returns the package entries of a run in decision order.
func (j *Journal) Entries(ctx context.Context, runID string) ([]*Entry, error) {
	rows, err := j.listEntriesStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, artifact.NewStorageError("sqlite", "list_entries", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
			reason  string
			outcome string
		)
		err := rows.Scan(&e.RunID, &e.Package.Name, &e.Package.Version, &created,
			&e.Action, &reason, &e.Rule, &outcome, &e.Error)
		if err != nil {
			return nil, artifact.NewStorageError("sqlite", "list_entries", err)
		}
		e.Package.CreationDate = time.Unix(0, created).UTC()
		e.Reason = retention.Reason(reason)
		e.Outcome = retention.Outcome(outcome)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, artifact.NewStorageError("sqlite", "list_entries", err)
	}
	return entries, nil
}

// DeleteRunsBefore deletes every run that started before cutoff together
// with its entries. It returns the number of runs deleted.
func (j *Journal) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return j.deleteRuns(ctx, "delete_by_age", runsStartedBefore, cutoff.UnixNano())
}

// DeleteAllButNewest keeps the keep most recent runs and deletes the rest.
// It returns the number of runs deleted.
func (j *Journal) DeleteAllButNewest(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep cannot be negative: %d", keep)
	}
	return j.deleteRuns(ctx, "delete_by_count", runsBeyondNewest, keep)
}

func (j *Journal) deleteRuns(ctx context.Context, op, where string, arg any) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, artifact.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE run_id IN (SELECT id FROM runs WHERE `+where+`)`, arg)
	if err != nil {
		return 0, artifact.NewStorageError("sqlite", op, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE `+where, arg)
	if err != nil {
		return 0, artifact.NewStorageError("sqlite", op, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, artifact.NewStorageError("sqlite", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, artifact.NewStorageError("sqlite", "commit", err)
	}
	return deleted, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close releases the prepared statements and the database handle.
func (j *Journal) Close() error {
	for _, stmt := range []*sql.Stmt{
		j.insertRunStmt, j.insertEntryStmt, j.getRunStmt, j.listRunsStmt, j.listEntriesStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r                 Run
		mode              string
		started, finished int64
	)
	err := row.Scan(&r.ID, &mode, &started, &finished,
		&r.Listed, &r.Kept, &r.ToDelete, &r.Deleted, &r.Failed)
	if err != nil {
		return nil, err
	}
	r.Mode = retention.Mode(mode)
	r.StartedAt = time.Unix(0, started).UTC()
	r.FinishedAt = time.Unix(0, finished).UTC()
	return &r, nil
}
