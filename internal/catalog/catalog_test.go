package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListDownloads(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i, title := range []string{"First Talk", "Second Talk"} {
		err := store.RecordDownload(ctx, Download{
			MediaID:         "id" + string(rune('0'+i)),
			Title:           title,
			Channel:         "Chan",
			Path:            "/audio/" + title + ".wav",
			URL:             "https://example.com/" + title,
			DurationSeconds: 120,
		})
		if err != nil {
			t.Fatalf("RecordDownload: %v", err)
		}
	}

	downloads, err := store.RecentDownloads(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDownloads: %v", err)
	}
	if len(downloads) != 2 {
		t.Fatalf("downloads = %d", len(downloads))
	}
	if downloads[0].Title != "Second Talk" {
		t.Fatalf("newest first expected, got %q", downloads[0].Title)
	}
	if downloads[0].DownloadedAt.IsZero() {
		t.Fatal("downloaded_at not recorded")
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	if err := store.RecordRun(ctx, started, time.Now(), 5, 1, 2); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	run := runs[0]
	if run.Completed != 5 || run.Failed != 1 || run.Skipped != 2 {
		t.Fatalf("run = %+v", run)
	}
	if !run.Finished.After(run.Started) {
		t.Fatal("timestamps not preserved")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordRun(context.Background(), time.Now(), time.Now(), 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs after reopen = %d", len(runs))
	}
}

func TestSchemaMismatchRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}
