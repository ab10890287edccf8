package journal

// Timestamps are stored as Unix nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    listed INTEGER NOT NULL,
    kept INTEGER NOT NULL,
    to_delete INTEGER NOT NULL,
    deleted INTEGER NOT NULL,
    failed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    run_id TEXT NOT NULL REFERENCES runs(id),
    seq INTEGER NOT NULL,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    action TEXT NOT NULL,
    reason TEXT NOT NULL,
    rule TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_entries_package ON entries(name, version);
`

const insertRunSQL = `
INSERT INTO runs (id, mode, started_at, finished_at, listed, kept, to_delete, deleted, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertEntrySQL = `
INSERT INTO entries (run_id, seq, name, version, created_at, action, reason, rule, outcome, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRunSQL = `
SELECT id, mode, started_at, finished_at, listed, kept, to_delete, deleted, failed
FROM runs`

const selectEntriesSQL = `
SELECT run_id, name, version, created_at, action, reason, rule, outcome, error
FROM entries
WHERE run_id = ?
ORDER BY seq`

// Run selections for pruning. Entries are deleted with their run.
const (
	runsStartedBefore = `started_at < ?`
	runsBeyondNewest  = `id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)`
)
