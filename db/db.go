// Package db provides database connection helpers, schema migration, and the
// recordings journal used by the status endpoints.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection for the given DSN.
func Connect(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// Migrate applies idempotent schema changes for all required tables and indices.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recordings (
			id SERIAL PRIMARY KEY,
			job_id TEXT UNIQUE,
			kind TEXT NOT NULL,
			duration_seconds INTEGER,
			state TEXT NOT NULL,
			artifact_path TEXT,
			artifact_bytes BIGINT DEFAULT 0,
			error TEXT,
			requested_by TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_job_id ON recordings(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_state ON recordings(state)`,
		`CREATE INDEX IF NOT EXISTS idx_recordings_created ON recordings(created_at)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// Recording is one journal row.
type Recording struct {
	JobID         string
	Kind          string
	Duration      int
	State         string
	ArtifactPath  string
	ArtifactBytes int64
	Error         string
	RequestedBy   string
	CreatedAt     time.Time
}

// Journal records recording job lifecycles. A nil Journal (or one without a DB)
// is a no-op so the service can run without Postgres.
type Journal struct {
	DB *sql.DB
}

func (j *Journal) enabled() bool { return j != nil && j.DB != nil }

// Begin inserts a new job row in the given initial state.
func (j *Journal) Begin(ctx context.Context, jobID, kind string, duration int, requestedBy string) {
	if !j.enabled() {
		return
	}
	_, _ = j.DB.ExecContext(ctx, `INSERT INTO recordings (job_id, kind, duration_seconds, state, requested_by, created_at)
		VALUES ($1,$2,$3,'created',$4,NOW()) ON CONFLICT (job_id) DO NOTHING`,
		jobID, kind, duration, requestedBy)
}

// SetState transitions a job to a new state.
func (j *Journal) SetState(ctx context.Context, jobID, state string) {
	if !j.enabled() {
		return
	}
	_, _ = j.DB.ExecContext(ctx, `UPDATE recordings SET state=$1, updated_at=NOW() WHERE job_id=$2`, state, jobID)
}

// Finish records the terminal state plus artifact/error details.
func (j *Journal) Finish(ctx context.Context, jobID, state, errText string, artifactBytes int64) {
	if !j.enabled() {
		return
	}
	_, _ = j.DB.ExecContext(ctx, `UPDATE recordings SET state=$1, error=NULLIF($2,''), artifact_bytes=$3, updated_at=NOW() WHERE job_id=$4`,
		state, errText, artifactBytes, jobID)
}

// Heartbeat stamps a kv key with the current time (best effort).
func (j *Journal) Heartbeat(ctx context.Context, key string) {
	if !j.enabled() {
		return
	}
	_, _ = j.DB.ExecContext(ctx, `INSERT INTO kv (key,value,updated_at) VALUES ($1,to_char(NOW() AT TIME ZONE 'UTC','YYYY-MM-DD"T"HH24:MI:SS"Z"'),NOW())
		ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key)
}

// Recent returns the most recent n journal rows, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Recording, error) {
	if !j.enabled() {
		return nil, nil
	}
	if n <= 0 {
		n = 20
	}
	rows, err := j.DB.QueryContext(ctx, `SELECT job_id, kind, COALESCE(duration_seconds,0), state,
		COALESCE(artifact_path,''), COALESCE(artifact_bytes,0), COALESCE(error,''), COALESCE(requested_by,''), created_at
		FROM recordings ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recording
	for rows.Next() {
		var r Recording
		if err := rows.Scan(&r.JobID, &r.Kind, &r.Duration, &r.State, &r.ArtifactPath, &r.ArtifactBytes, &r.Error, &r.RequestedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StateCounts returns row counts grouped by state.
func (j *Journal) StateCounts(ctx context.Context) (map[string]int, error) {
	if !j.enabled() {
		return nil, nil
	}
	rows, err := j.DB.QueryContext(ctx, `SELECT state, COUNT(1) FROM recordings GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		out[state] = n
	}
	return out, rows.Err()
}
