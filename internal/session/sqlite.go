package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	conn *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serialises writers and keeps ":memory:" databases alive.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS attempts (
		session_id TEXT PRIMARY KEY,
		job_id INTEGER NOT NULL,
		hostname TEXT NOT NULL,
		template_name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		inventory_id INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_job_id ON attempts(job_id);

	CREATE TABLE IF NOT EXISTS finalized_jobs (
		job_id INTEGER PRIMARY KEY,
		finalized_at TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*Attempt, error) {
	query := `SELECT job_id, hostname, template_name, start_time, inventory_id
	          FROM attempts WHERE session_id = ?`

	var (
		a     Attempt
		start string
	)
	err := s.conn.QueryRowContext(ctx, query, sessionID).
		Scan(&a.JobID, &a.Hostname, &a.TemplateName, &start, &a.InventoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAttempt
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	a.StartTime, err = time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return nil, fmt.Errorf("parse start time %q: %w", start, err)
	}
	return &a, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sessionID string, a Attempt) error {
	query := `
	INSERT INTO attempts (session_id, job_id, hostname, template_name, start_time, inventory_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		job_id = excluded.job_id,
		hostname = excluded.hostname,
		template_name = excluded.template_name,
		start_time = excluded.start_time,
		inventory_id = excluded.inventory_id,
		updated_at = excluded.updated_at
	`
	_, err := s.conn.ExecContext(ctx, query, sessionID, a.JobID, a.Hostname, a.TemplateName,
		a.StartTime.Format(time.RFC3339Nano), a.InventoryID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put attempt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM attempts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear attempt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearJob(ctx context.Context, sessionID string, jobID int) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM attempts WHERE session_id = ? AND job_id = ?`, sessionID, jobID)
	if err != nil {
		return false, fmt.Errorf("clear attempt of job %d: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear attempt of job %d: %w", jobID, err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) ClaimFinalize(ctx context.Context, jobID int) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO finalized_jobs (job_id, finalized_at) VALUES (?, ?)`,
		jobID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("claim finalize for job %d: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim finalize for job %d: %w", jobID, err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
