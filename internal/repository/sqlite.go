package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			status TEXT NOT NULL,
			routing_label TEXT,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// Outcome columns were added after the first schema; older databases get them here.
	if err := s.ensureColumn("runs", "response_type", `ALTER TABLE runs ADD COLUMN response_type TEXT`); err != nil {
		return err
	}
	if err := s.ensureColumn("runs", "error_kind", `ALTER TABLE runs ADD COLUMN error_kind TEXT`); err != nil {
		return err
	}
	if err := s.ensureColumn("runs", "error_message", `ALTER TABLE runs ADD COLUMN error_message TEXT`); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun creates a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, session_id, status, routing_label, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.SessionID, run.Status, nullString(string(run.RoutingLabel)), run.StartedAt)
	return err
}

const runColumns = `run_id, session_id, status, routing_label, response_type, error_kind, error_message, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var label, responseType, errKind, errMsg sql.NullString
	var endedAt sql.NullTime
	if err := row.Scan(&run.RunID, &run.SessionID, &run.Status, &label, &responseType, &errKind, &errMsg, &run.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	run.RoutingLabel = domain.Label(label.String)
	run.ResponseType = domain.ResponseType(responseType.String)
	run.ErrorKind = domain.ErrorKind(errKind.String)
	run.ErrorMessage = errMsg.String
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return &run, nil
}

// GetRun retrieves a run by ID. A missing run yields (nil, nil).
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the runs of a session, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, sessionID string, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE session_id = ? ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateRunStatus updates the status of a run.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE run_id = ?`,
		status, runID)
	return err
}

// UpdateRunLabel records the routing label chosen by the classifier.
func (s *SQLiteStore) UpdateRunLabel(ctx context.Context, runID string, label domain.Label) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET routing_label = ? WHERE run_id = ?`,
		string(label), runID)
	return err
}

// UpdateRunCompleted updates a run to completed state.
func (s *SQLiteStore) UpdateRunCompleted(ctx context.Context, runID string, result RunResult) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, response_type = ?, error_kind = ?, error_message = ?, ended_at = ? WHERE run_id = ?`,
		result.Status, nullString(string(result.ResponseType)), nullString(string(result.ErrorKind)),
		nullString(result.ErrorMessage), now, runID)
	return err
}

// ListStaleRuns returns runs still CREATED or RUNNING that started before the
// given time, oldest first.
func (s *SQLiteStore) ListStaleRuns(ctx context.Context, startedBefore time.Time, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE status IN (?, ?) AND started_at < ? ORDER BY started_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, domain.RunStatusCreated, domain.RunStatusRunning, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FailRunIfActive completes a run only if it has not finished yet. It reports
// whether the row was updated.
func (s *SQLiteStore) FailRunIfActive(ctx context.Context, runID string, result RunResult) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, ended_at = ?
		 WHERE run_id = ? AND status IN (?, ?)`,
		domain.RunStatusFailed, nullString(string(result.ErrorKind)), nullString(result.ErrorMessage), time.Now(),
		runID, domain.RunStatusCreated, domain.RunStatusRunning)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateEvent creates a new event.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, run_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.RunID, event.Ts, event.Type, nullStringBytes(event.Payload))
	return err
}

// GetEvents retrieves events for a run.
func (s *SQLiteStore) GetEvents(ctx context.Context, runID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	query := `SELECT event_id, run_id, ts, type, payload FROM events WHERE run_id = ?`
	args := []interface{}{runID}

	if afterTs > 0 {
		query += ` AND ts > ?`
		args = append(args, afterTs)
	}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		query += fmt.Sprintf(" AND type IN (%s)", strings.Join(placeholders, ","))
	}

	// rowid keeps insertion order for events sharing a millisecond.
	query += ` ORDER BY ts ASC, rowid ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var event domain.Event
		var payload sql.NullString
		if err := rows.Scan(&event.EventID, &event.RunID, &event.Ts, &event.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
