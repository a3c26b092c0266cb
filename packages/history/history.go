// Package history records suite runs in a SQLite database so results can be
// compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	base_url    TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	auth_error  TEXT
);
CREATE TABLE IF NOT EXISTS scenarios (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	failure     TEXT,
	message     TEXT,
	status_code INTEGER,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// Run is a stored run summary.
type Run struct {
	ID        string
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	AuthError string
	Scenarios []Scenario
}

// Scenario is a stored scenario verdict.
type Scenario struct {
	Order      int
	Name       string
	Passed     bool
	Failure    string
	Message    string
	StatusCode int
	Duration   time.Duration
}

// Store is a run history database
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens the history database named by a connection string such as
// sqlite://runs.db and creates its tables.
func Open(connectionString string) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run and every scenario verdict in one transaction.
func (s *Store) Record(ctx context.Context, result *runner.RunResult) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var authErr sql.NullString
	if result.AuthErr != nil {
		authErr = sql.NullString{String: result.AuthErr.Error(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, base_url, started_at, duration_ms, passed, failed, auth_error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.BaseURL, result.StartedAt.UTC(), result.Duration.Milliseconds(),
		result.Passed, result.Failed, authErr)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	for _, r := range result.Results {
		status := sql.NullInt64{}
		if r.Outcome != nil && !r.Outcome.TransportFailed() {
			status = sql.NullInt64{Int64: int64(r.Outcome.StatusCode), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scenarios (run_id, position, name, passed, failure, message, status_code, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, r.Order, r.Name, r.Passed, string(r.Failure), r.Message, status, r.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert scenario %q: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// Recent returns the n most recent runs, newest first, with their scenarios.
func (s *Store) Recent(ctx context.Context, n int) ([]*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, base_url, started_at, duration_ms, passed, failed, auth_error FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run        Run
			durationMs int64
			authErr    sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.BaseURL, &run.StartedAt, &durationMs, &run.Passed, &run.Failed, &authErr); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		run.AuthError = authErr.String
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, run := range runs {
		scenarios, err := s.scenarios(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		run.Scenarios = scenarios
	}
	return runs, nil
}

func (s *Store) scenarios(ctx context.Context, runID string) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, passed, failure, message, status_code, duration_ms FROM scenarios WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		var (
			sc         Scenario
			failure    sql.NullString
			message    sql.NullString
			status     sql.NullInt64
			durationMs int64
		)
		if err := rows.Scan(&sc.Order, &sc.Name, &sc.Passed, &failure, &message, &status, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sc.Failure = failure.String
		sc.Message = message.String
		sc.StatusCode = int(status.Int64)
		sc.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, sc)
	}
	return out, rows.Err()
}

// parseConnectionString accepts sqlite://path, sqlite:path or a bare path.
func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return "", fmt.Errorf("empty history connection string")
	}

	switch {
	case strings.HasPrefix(connStr, "sqlite://"):
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	case strings.HasPrefix(connStr, "sqlite:"):
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	case strings.Contains(connStr, "://"):
		scheme := connStr[:strings.Index(connStr, "://")]
		return "", fmt.Errorf("unsupported history scheme: %s", scheme)
	default:
		return connStr, nil
	}
}
