package db

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres test")
	}
	dbc, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })
	if err := Migrate(context.Background(), dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbc
}

func TestMigrateIdempotent(t *testing.T) {
	dbc := testDB(t)
	// Running twice must not error.
	if err := Migrate(context.Background(), dbc); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestJournalLifecycle(t *testing.T) {
	dbc := testDB(t)
	j := &Journal{DB: dbc}
	ctx := context.Background()

	j.Begin(ctx, "job-test-1", "clip", 10, "tester")
	j.SetState(ctx, "job-test-1", "running")
	j.Finish(ctx, "job-test-1", "completed", "", 51200)

	recent, err := j.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	found := false
	for _, r := range recent {
		if r.JobID == "job-test-1" {
			found = true
			if r.State != "completed" {
				t.Errorf("state = %q, want completed", r.State)
			}
			if r.ArtifactBytes != 51200 {
				t.Errorf("artifact_bytes = %d, want 51200", r.ArtifactBytes)
			}
		}
	}
	if !found {
		t.Errorf("job-test-1 not found in recent rows")
	}

	counts, err := j.StateCounts(ctx)
	if err != nil {
		t.Fatalf("state counts: %v", err)
	}
	if counts["completed"] < 1 {
		t.Errorf("completed count = %d, want >= 1", counts["completed"])
	}
}

func TestNilJournalIsNoop(t *testing.T) {
	var j *Journal
	ctx := context.Background()
	j.Begin(ctx, "x", "clip", 1, "")
	j.SetState(ctx, "x", "running")
	j.Finish(ctx, "x", "failed", "boom", 0)
	if rows, err := j.Recent(ctx, 10); err != nil || rows != nil {
		t.Errorf("nil journal Recent = (%v, %v), want (nil, nil)", rows, err)
	}
}
