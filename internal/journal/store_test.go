package journal

import (
	"context"
	"path/filepath"
	"testing"

	"turntable/internal/config"
	"turntable/internal/services"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginAndAdvance(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record, err := store.Begin(ctx, "r-123", "/audio/a.mp3", "/out/a.mp4", "quality")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if record.Status != StatusPlanning {
		t.Fatalf("status = %q, want planning", record.Status)
	}
	if record.RenderID != "r-123" || record.Profile != "quality" {
		t.Fatalf("unexpected record: %+v", record)
	}

	if err := store.SetPlan(ctx, record.ID, 245.81, 3); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}
	if err := store.SetStatus(ctx, record.ID, StatusEncoding); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	loaded, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != StatusEncoding {
		t.Fatalf("status = %q, want encoding", loaded.Status)
	}
	if loaded.DurationSeconds != 245.81 || loaded.ChunkCount != 3 {
		t.Fatalf("plan not recorded: %+v", loaded)
	}
	if loaded.CompletedAt != nil {
		t.Fatal("completed_at set before finish")
	}
}

func TestSetStatusRejectsTerminal(t *testing.T) {
	store := testStore(t)
	record, err := store.Begin(context.Background(), "r-1", "/a.mp3", "/a.mp4", "fast")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.SetStatus(context.Background(), record.ID, StatusFailed); err == nil {
		t.Fatal("SetStatus accepted a terminal status")
	}
}

func TestFinishSuccess(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	record, _ := store.Begin(ctx, "r-ok", "/a.mp3", "/a.mp4", "fast")

	if err := store.Finish(ctx, record.ID, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	loaded, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != StatusSucceeded {
		t.Fatalf("status = %q", loaded.Status)
	}
	if loaded.CompletedAt == nil || loaded.CompletedAt.IsZero() {
		t.Fatal("completed_at not recorded")
	}
	if loaded.FailureKind != "" {
		t.Fatalf("failure kind on success: %q", loaded.FailureKind)
	}
}

func TestFinishFailureClassifies(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	record, _ := store.Begin(ctx, "r-bad", "/a.mp3", "/a.mp4", "fast")

	renderErr := services.Wrap(services.ErrEncodeStall, "ffmpeg", "encode", "no progress within 60s", nil)
	if err := store.Finish(ctx, record.ID, renderErr); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	loaded, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != StatusFailed {
		t.Fatalf("status = %q", loaded.Status)
	}
	if loaded.FailureKind != "stall" {
		t.Fatalf("failure kind = %q, want stall", loaded.FailureKind)
	}
	if loaded.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}
}

func TestListNewestFirstAndStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, _ := store.Begin(ctx, "r-1", "/a.mp3", "/a.mp4", "fast")
	second, _ := store.Begin(ctx, "r-2", "/b.mp3", "/b.mp4", "quality")
	if err := store.Finish(ctx, first.ID, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d", len(records))
	}
	if records[0].ID != second.ID {
		t.Fatalf("newest record not first: got id %d", records[0].ID)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusSucceeded] != 1 || stats[StatusPlanning] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestClear(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	_, _ = store.Begin(ctx, "r-1", "/a.mp3", "/a.mp4", "fast")
	_, _ = store.Begin(ctx, "r-2", "/b.mp3", "/b.mp4", "fast")

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records remain after clear: %d", len(records))
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	record, err := store.Begin(context.Background(), "r-persist", "/a.mp3", "/a.mp4", "fast")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if loaded.RenderID != "r-persist" {
		t.Fatalf("record lost across reopen: %+v", loaded)
	}
}
