package download

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "jobs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleJob() *Job {
	return &Job{
		ServerClientID: "friend-1",
		ServerName:     "Friend Server",
		Library:        "TV Shows",
		Show:           "Fake Show",
		Folder:         "/downloads",
		Episodes: []JobEpisode{
			{RatingKey: "300", Title: "Pilot", Season: 1, Index: 1},
			{RatingKey: "301", Title: "Second", Season: 1, Index: 2},
		},
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	active, err := store.Active(ctx)
	if err != nil || active != nil {
		t.Fatalf("expected no active job, got %#v, %v", active, err)
	}

	job, err := store.Create(ctx, sampleJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.ID == "" || job.Episodes[0].Status != StatusPending {
		t.Fatalf("expected ID and pending status, got %#v", job)
	}

	if err := store.UpdateEpisodeStatus(ctx, job.ID, "301", StatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateEpisodeStatus failed: %v", err)
	}
	active, err = store.Active(ctx)
	if err != nil || active == nil {
		t.Fatalf("expected active job, got %#v, %v", active, err)
	}
	if active.ID != job.ID || active.Show != "Fake Show" || len(active.Episodes) != 2 {
		t.Fatalf("unexpected active job %#v", active)
	}
	if active.Episodes[0].RatingKey != "300" || active.Episodes[1].Status != StatusFailed || active.Episodes[1].ErrorMessage != "boom" {
		t.Fatalf("unexpected episodes %#v", active.Episodes)
	}
	pending, completed, failed := active.Counts()
	if pending != 1 || completed != 0 || failed != 1 {
		t.Fatalf("unexpected counts %d/%d/%d", pending, completed, failed)
	}

	if err := store.Finish(ctx, job.ID); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if active, err := store.Active(ctx); err != nil || active != nil {
		t.Fatalf("expected finished job to be inactive, got %#v, %v", active, err)
	}
	finished, err := store.Get(ctx, job.ID)
	if err != nil || finished.FinishedAt.IsZero() {
		t.Fatalf("expected finished_at to be set, got %#v, %v", finished, err)
	}

	if err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := store.Delete(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on second delete, got %v", err)
	}
}

func TestStoreActiveReturnsNewest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, sampleJob())
	if err != nil {
		t.Fatalf("Create first failed: %v", err)
	}
	second, err := store.Create(ctx, sampleJob())
	if err != nil {
		t.Fatalf("Create second failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct job IDs")
	}
	active, err := store.Active(ctx)
	if err != nil || active == nil || active.ID != second.ID {
		t.Fatalf("expected newest job active, got %#v, %v", active, err)
	}
}

func TestStoreCreateValidates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, &Job{ServerClientID: "x"}); err == nil {
		t.Fatal("expected error for job without episodes")
	}
	job := sampleJob()
	job.ServerClientID = " "
	if _, err := store.Create(ctx, job); err == nil {
		t.Fatal("expected error for job without server")
	}
	if err := store.UpdateEpisodeStatus(ctx, "missing", "300", StatusCompleted, ""); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestStoreDeleteCascadesOnEveryConnection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, sampleJob())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Keep one pooled connection busy so Delete runs on a fresh one.
	rows, err := store.db.QueryContext(ctx, `SELECT id FROM jobs`)
	if err != nil {
		t.Fatalf("query jobs: %v", err)
	}
	defer rows.Close()

	if err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var orphans int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_episodes WHERE job_id = ?`, job.ID).Scan(&orphans); err != nil {
		t.Fatalf("count episodes: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected episodes to be deleted with the job, found %d", orphans)
	}
}
