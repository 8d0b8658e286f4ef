// Package catalog records every fetch and process run, and the result of each
// game within it, in a small SQLite database next to the data it describes.
//
// The catalog is what makes per-game failures visible after the fact: a run
// never stops on a bad page, so `pfr-pbp status` reads the failures back from here.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

// ErrNoRuns is returned when the catalog has no run of the requested kind.
var ErrNoRuns = errors.New("no runs recorded")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT
);
CREATE TABLE IF NOT EXISTS game_results (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	code    TEXT NOT NULL,
	outcome TEXT NOT NULL DEFAULT '',
	plays   INTEGER NOT NULL DEFAULT 0,
	error   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, code)
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(kind, started_at);
`

// Run kinds
const (
	KindFetch   = "fetch"
	KindProcess = "process"
)

// Run is one invocation of a command.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// GameResult is the recorded result of one game in a run. Err is empty on success.
type GameResult struct {
	Code    string `json:"code"`
	Outcome string `json:"outcome,omitempty"`
	Plays   int    `json:"plays"`
	Err     string `json:"error,omitempty"`
}

// Summary aggregates a run's results.
type Summary struct {
	Run       Run            `json:"run"`
	Total     int            `json:"total"`
	ByOutcome map[string]int `json:"by_outcome"`
	Failures  []GameResult   `json:"failures"`
}

// Catalog is a handle on the catalog database.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db: db, now: time.Now}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginRun records the start of a run and returns it.
func (c *Catalog) BeginRun(ctx context.Context, kind string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: c.now().UTC(),
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Kind, formatTime(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's finish time.
func (c *Catalog) FinishRun(ctx context.Context, run *Run) error {
	run.FinishedAt = c.now().UTC()
	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		formatTime(run.FinishedAt), run.ID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// RecordGame stores one game's result, replacing any earlier result for the
// same game in the same run.
func (c *Catalog) RecordGame(ctx context.Context, runID string, r GameResult) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO game_results (run_id, code, outcome, plays, error) VALUES (?, ?, ?, ?, ?)`,
		runID, r.Code, r.Outcome, r.Plays, r.Err)
	if err != nil {
		return fmt.Errorf("recording game %s: %w", r.Code, err)
	}
	return nil
}

// LatestRun returns the most recently started run of kind, or of any kind if
// kind is empty.
func (c *Catalog) LatestRun(ctx context.Context, kind string) (*Run, error) {
	query := `SELECT id, kind, started_at, COALESCE(finished_at, '') FROM runs`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT 1`

	var run Run
	var started, finished string
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.Kind, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}

	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished != "" {
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
	}
	return &run, nil
}

// Results returns a run's game results ordered by code.
func (c *Catalog) Results(ctx context.Context, runID string) ([]GameResult, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT code, outcome, plays, error FROM game_results WHERE run_id = ? ORDER BY code`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var r GameResult
		if err := rows.Scan(&r.Code, &r.Outcome, &r.Plays, &r.Err); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Summarize aggregates the results of run.
func (c *Catalog) Summarize(ctx context.Context, run *Run) (*Summary, error) {
	results, err := c.Results(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Run:       *run,
		Total:     len(results),
		ByOutcome: make(map[string]int),
		Failures:  []GameResult{},
	}
	for _, r := range results {
		if r.Err != "" {
			s.Failures = append(s.Failures, r)
			continue
		}
		if r.Outcome != "" {
			s.ByOutcome[r.Outcome]++
		}
	}
	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing catalog time %q: %w", s, err)
	}
	return t, nil
}
