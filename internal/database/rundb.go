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

	"github.com/nao1215/linkscan/internal/model"
)

// ErrDatabaseNotFound is returned by Open when the file does not exist and
// CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunDB stores crawl runs and their results.
type RunDB struct {
	db *sql.DB

	path string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory if
	// they don't exist.
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

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*RunDB, error) {
	if opts.CreateIfNotExists {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	} else {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// busy_timeout lets a second process wait for the write lock.
	dsn := path + "?mode=rw&_pragma=busy_timeout(5000)"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, path: path}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.path
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		total INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		client_errors INTEGER NOT NULL,
		server_errors INTEGER NOT NULL,
		network_errors INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed, started_at);

	CREATE TABLE IF NOT EXISTS crawl_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		parent TEXT,
		depth INTEGER NOT NULL,
		kind TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		error TEXT,
		hash TEXT,
		duration_ms INTEGER,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON crawl_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_kind ON crawl_results(run_id, kind);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run without its results.
type RunRecord struct {
	ID            int64     `json:"id"`
	Seed          string    `json:"seed"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Total         int       `json:"total"`
	Succeeded     int       `json:"succeeded"`
	ClientErrors  int       `json:"client_errors"`
	ServerErrors  int       `json:"server_errors"`
	NetworkErrors int       `json:"network_errors"`
}

// Broken returns the number of broken links in the run.
func (r RunRecord) Broken() int {
	return r.ClientErrors + r.ServerErrors + r.NetworkErrors
}

// SaveRun stores the summary and all its results in one transaction and
// returns the new run ID.
func (rdb *RunDB) SaveRun(ctx context.Context, summary *model.Summary) (int64, error) {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (seed, started_at, finished_at, total, succeeded, client_errors, server_errors, network_errors)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.Seed,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
		summary.Total,
		summary.Succeeded,
		summary.ClientErrors,
		summary.ServerErrors,
		summary.NetworkErrors,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawl_results (run_id, url, parent, depth, kind, status_code, content_type, error, hash, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range summary.Results {
		_, err := stmt.ExecContext(ctx,
			runID,
			r.URL,
			r.Parent,
			r.Depth,
			r.Kind.String(),
			r.StatusCode,
			r.ContentType,
			r.Error,
			r.Hash,
			r.Duration.Milliseconds(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert result %s: %w", r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

const runColumns = `id, seed, started_at, finished_at, total, succeeded, client_errors, server_errors, network_errors`

// GetRun retrieves a run by ID. Returns nil if the run does not exist.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := rdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the runs for seed, newest first.
func (rdb *RunDB) ListRuns(ctx context.Context, seed string) ([]RunRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT `+runColumns+` FROM crawl_runs
	WHERE seed = ?
	ORDER BY started_at DESC, id DESC
	`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// ListSeeds returns every seed that has at least one stored run.
func (rdb *RunDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT seed FROM crawl_runs ORDER BY seed`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// GetResults returns the results of a run sorted by URL.
func (rdb *RunDB) GetResults(ctx context.Context, runID int64) ([]model.Result, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT url, parent, depth, kind, status_code, content_type, error, hash, duration_ms
	FROM crawl_results
	WHERE run_id = ?
	ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var (
			r                                  model.Result
			kind                               string
			parent, contentType, errText, hash sql.NullString
			statusCode, durationMS             sql.NullInt64
		)
		err := rows.Scan(&r.URL, &parent, &r.Depth, &kind, &statusCode, &contentType, &errText, &hash, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		r.Kind, err = model.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", r.URL, err)
		}
		r.Parent = parent.String
		r.StatusCode = int(statusCode.Int64)
		r.ContentType = contentType.String
		r.Error = errText.String
		r.Hash = hash.String
		r.Duration = time.Duration(durationMS.Int64) * time.Millisecond

		results = append(results, r)
	}

	return results, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var startedAt, finishedAt string

	err := row.Scan(
		&run.ID,
		&run.Seed,
		&startedAt,
		&finishedAt,
		&run.Total,
		&run.Succeeded,
		&run.ClientErrors,
		&run.ServerErrors,
		&run.NetworkErrors,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	return &run, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp parses a stored timestamp. It returns the zero time if no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
