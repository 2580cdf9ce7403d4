// Package database keeps a SQLite ledger of crawl runs and of what happened
// to each tournament during a run.
//
// The ledger is informational. Whether a tournament still needs crawling is
// decided by the document store alone.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Mvlo566/POKETL/internal/model"
)

// FileName is the ledger file created inside the data directory.
const FileName = "poketl.db"

// Ledger provides SQLite-based storage for crawl history.
type Ledger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ledger in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger not found at %s (run a scrape first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createTables() error {
	schema := `
	-- One row per invocation of the crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages INTEGER DEFAULT 0,
		written INTEGER DEFAULT 0,
		skipped_existing INTEGER DEFAULT 0,
		skipped_empty INTEGER DEFAULT 0,
		failed_layout INTEGER DEFAULT 0,
		players INTEGER DEFAULT 0,
		decklists INTEGER DEFAULT 0,
		matches INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- What happened to each tournament in a run
	CREATE TABLE IF NOT EXISTS tournaments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		tournament_id TEXT NOT NULL,
		name TEXT,
		outcome TEXT NOT NULL,
		players INTEGER DEFAULT 0,
		decklists INTEGER DEFAULT 0,
		matches INTEGER DEFAULT 0,
		path TEXT,
		digest TEXT,
		error TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tournaments_run ON tournaments(run_id);
	CREATE INDEX IF NOT EXISTS idx_tournaments_tid ON tournaments(tournament_id);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID              int64
	FirstURL        string
	StartedAt       time.Time
	FinishedAt      time.Time
	Pages           int
	Written         int
	SkippedExisting int
	SkippedEmpty    int
	FailedLayout    int
	Players         int
	Decklists       int
	Matches         int
	Error           string
}

// Finished reports whether the run recorded its end.
func (r RunRecord) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StartRun inserts a run and returns its id.
func (l *Ledger) StartRun(ctx context.Context, firstURL string, startedAt time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (first_url, started_at) VALUES (?, ?)`,
		firstURL, formatTimestamp(startedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// RecordOutcome stores what happened to one tournament of a run.
func (l *Ledger) RecordOutcome(ctx context.Context, runID int64, o model.TournamentOutcome) error {
	query := `
	INSERT INTO tournaments (run_id, tournament_id, name, outcome, players, decklists, matches, path, digest, error, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		runID, o.ID, o.Name, string(o.Outcome),
		o.Players, o.Decklists, o.Matches,
		o.Path, o.Digest, o.Error,
		formatTimestamp(o.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome of %s: %w", o.ID, err)
	}
	return nil
}

// FinishRun stores the totals of a finished (or aborted) run.
func (l *Ledger) FinishRun(ctx context.Context, runID int64, s *model.RunSummary) error {
	players, decklists, matches := s.Totals()

	query := `
	UPDATE runs SET
		finished_at = ?, pages = ?,
		written = ?, skipped_existing = ?, skipped_empty = ?, failed_layout = ?,
		players = ?, decklists = ?, matches = ?, error = ?
	WHERE id = ?
	`

	res, err := l.db.ExecContext(ctx, query,
		formatTimestamp(s.FinishedAt), s.Pages,
		s.Count(model.OutcomeWritten), s.Count(model.OutcomeSkippedExisting),
		s.Count(model.OutcomeSkippedEmpty), s.Count(model.OutcomeFailedLayout),
		players, decklists, matches, s.Error,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run %d: %w", runID, sql.ErrNoRows)
	}
	return nil
}

const runColumns = `id, first_url, started_at, COALESCE(finished_at, ''), pages,
	written, skipped_existing, skipped_empty, failed_layout,
	players, decklists, matches, COALESCE(error, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		r                   RunRecord
		started, finished string
	)
	err := row.Scan(&r.ID, &r.FirstURL, &started, &finished, &r.Pages,
		&r.Written, &r.SkippedExisting, &r.SkippedEmpty, &r.FailedLayout,
		&r.Players, &r.Decklists, &r.Matches, &r.Error)
	if err != nil {
		return RunRecord{}, err
	}
	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRun returns a run by id, or nil if it does not exist.
func (l *Ledger) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &r, nil
}

const outcomeColumns = `tournament_id, COALESCE(name, ''), outcome, players, decklists, matches,
	COALESCE(path, ''), COALESCE(digest, ''), COALESCE(error, ''), timestamp`

func (l *Ledger) queryOutcomes(ctx context.Context, query string, args ...any) ([]model.TournamentOutcome, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.TournamentOutcome
	for rows.Next() {
		var (
			o         model.TournamentOutcome
			outcome   string
			timestamp string
		)
		if err := rows.Scan(&o.ID, &o.Name, &outcome, &o.Players, &o.Decklists, &o.Matches,
			&o.Path, &o.Digest, &o.Error, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Outcome = model.Outcome(outcome)
		o.Timestamp = parseTimestamp(timestamp)
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// RunOutcomes returns the tournaments of a run in processing order.
func (l *Ledger) RunOutcomes(ctx context.Context, runID int64) ([]model.TournamentOutcome, error) {
	return l.queryOutcomes(ctx,
		`SELECT `+outcomeColumns+` FROM tournaments WHERE run_id = ? ORDER BY id`, runID)
}

// TournamentHistory returns every recorded outcome of a tournament, oldest first.
func (l *Ledger) TournamentHistory(ctx context.Context, tournamentID string) ([]model.TournamentOutcome, error) {
	return l.queryOutcomes(ctx,
		`SELECT `+outcomeColumns+` FROM tournaments WHERE tournament_id = ? ORDER BY id`, tournamentID)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats the ledger may hold.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp parses a stored timestamp. Empty or unparsable values
// yield the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
