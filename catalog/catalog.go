// Package catalog records processing runs and per-pair results in a SQLite
// database, so a stack can be audited or resumed after a failure.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run and pair states.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// ErrUnknownRun is returned for run ids that are not in the catalog.
var ErrUnknownRun = errors.New("catalog: unknown run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	workdir     TEXT NOT NULL,
	pol         TEXT NOT NULL,
	"window"    TEXT NOT NULL,
	kernel      TEXT NOT NULL,
	status      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS pairs (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	reference  TEXT NOT NULL,
	secondary  TEXT NOT NULL,
	status     TEXT NOT NULL,
	mean       REAL,
	std        REAL,
	valid      REAL,
	elapsed_ms INTEGER,
	error      TEXT,
	PRIMARY KEY (run_id, reference, secondary)
);
`

// RunInfo describes a run when it starts.
type RunInfo struct {
	Workdir      string
	Polarization string
	Window       string
	Kernel       string
}

// Run is a stored run.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time // zero while running
	RunInfo
	Status string
}

// PairRecord is the outcome of one pair.
type PairRecord struct {
	Reference string
	Secondary string
	Status    string
	Mean      float64
	StdDev    float64
	Valid     float64 // valid fraction
	Elapsed   time.Duration
	Err       string
}

// Catalog is a SQLite-backed run log. It is safe for concurrent use.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the catalog at path. ":memory:" gives a private
// in-memory catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// One connection: SQLite has a single writer and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginRun stores a new running run and returns its id.
func (c *Catalog) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	id := uuid.New().String()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, workdir, pol, "window", kernel, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, c.now().UnixMilli(), info.Workdir, info.Polarization, info.Window, info.Kernel, StatusRunning)
	if err != nil {
		return "", fmt.Errorf("catalog: begin run: %w", err)
	}
	return id, nil
}

// ResumeRun marks an existing run as running again. Its pair records are
// kept, so Completed keeps reporting pairs finished before the resume.
func (c *Catalog) ResumeRun(ctx context.Context, runID string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = NULL, status = ? WHERE id = ?`,
		StatusRunning, runID)
	if err != nil {
		return fmt.Errorf("catalog: resume run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: resume run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// RecordPair stores the outcome of a pair, replacing an earlier record of
// the same pair in the run.
func (c *Catalog) RecordPair(ctx context.Context, runID string, p PairRecord) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pairs
		 (run_id, reference, secondary, status, mean, std, valid, elapsed_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Reference, p.Secondary, p.Status, p.Mean, p.StdDev, p.Valid,
		p.Elapsed.Milliseconds(), p.Err)
	if err != nil {
		return fmt.Errorf("catalog: record %s_%s: %w", p.Reference, p.Secondary, err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (c *Catalog) FinishRun(ctx context.Context, runID, status string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		c.now().UnixMilli(), status, runID)
	if err != nil {
		return fmt.Errorf("catalog: finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// Run returns a stored run.
func (c *Catalog) Run(ctx context.Context, runID string) (Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, workdir, pol, "window", kernel, status
		 FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &started, &finished, &r.Workdir, &r.Polarization, &r.Window, &r.Kernel, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("catalog: run: %w", err)
	}
	r.Started = time.UnixMilli(started)
	if finished.Valid {
		r.Finished = time.UnixMilli(finished.Int64)
	}
	return r, nil
}

// Pairs returns the pair records of a run ordered by reference, secondary.
func (c *Catalog) Pairs(ctx context.Context, runID string) ([]PairRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT reference, secondary, status, mean, std, valid, elapsed_ms, error
		 FROM pairs WHERE run_id = ? ORDER BY reference, secondary`, runID)
	if err != nil {
		return nil, fmt.Errorf("catalog: pairs: %w", err)
	}
	defer rows.Close()

	var out []PairRecord
	for rows.Next() {
		var (
			p       PairRecord
			elapsed int64
		)
		if err := rows.Scan(&p.Reference, &p.Secondary, &p.Status, &p.Mean, &p.StdDev, &p.Valid, &elapsed, &p.Err); err != nil {
			return nil, fmt.Errorf("catalog: pairs: %w", err)
		}
		p.Elapsed = time.Duration(elapsed) * time.Millisecond
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: pairs: %w", err)
	}
	return out, nil
}

// Completed returns the pairs of a run that finished successfully, keyed
// by "<ref>_<sec>".
func (c *Catalog) Completed(ctx context.Context, runID string) (map[string]bool, error) {
	pairs, err := c.Pairs(ctx, runID)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if p.Status == StatusDone {
			done[p.Reference+"_"+p.Secondary] = true
		}
	}
	return done, nil
}
