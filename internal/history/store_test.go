package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"quill/internal/history"
	"quill/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	entry, err := store.Record(ctx, "https://example.com/watch?v=abc123", "gemini-2.5-pro", "Alice, Bob")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("expected entry ID to be assigned")
	}
	if entry.Status != history.StatusRunning {
		t.Fatalf("expected running status, got %s", entry.Status)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if entry.CompletedAt != nil {
		t.Fatalf("expected no completed_at, got %v", entry.CompletedAt)
	}

	fetched, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourceURL != "https://example.com/watch?v=abc123" {
		t.Fatalf("unexpected fetched entry: %#v", fetched)
	}
	if fetched.Model != "gemini-2.5-pro" || fetched.Speakers != "Alice, Bob" {
		t.Fatalf("unexpected metadata: %#v", fetched)
	}
}

func TestOpenDisabledReturnsNilStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.History.Enabled = false

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store != nil {
		t.Fatal("expected nil store when history disabled")
	}

	ctx := context.Background()
	if entry, err := store.Record(ctx, "https://example.com", "", ""); err != nil || entry != nil {
		t.Fatalf("nil store Record = (%v, %v), want (nil, nil)", entry, err)
	}
	if entries, err := store.List(ctx, 10); err != nil || entries != nil {
		t.Fatalf("nil store List = (%v, %v), want (nil, nil)", entries, err)
	}
	if err := store.MarkCompleted(ctx, 1, "t", "p", time.Second); err != nil {
		t.Fatalf("nil store MarkCompleted: %v", err)
	}
	if count, err := store.ClearFinished(ctx); err != nil || count != 0 {
		t.Fatalf("nil store ClearFinished = (%d, %v), want (0, nil)", count, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("nil store Close: %v", err)
	}
}

func TestRecordRequiresSourceURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if _, err := store.Record(context.Background(), "   ", "", ""); err == nil {
		t.Fatal("expected error for blank source url")
	}
}

func TestMarkCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	entry := testsupport.RecordEntry(t, store, "https://example.com/ep1")

	if err := store.MarkCompleted(ctx, entry.ID, "Episode One", "/out/episode-one.txt", 83*time.Second); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	updated, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != history.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if updated.Title != "Episode One" || updated.OutputPath != "/out/episode-one.txt" {
		t.Fatalf("unexpected result fields: %#v", updated)
	}
	if updated.DurationSeconds != 83 {
		t.Fatalf("expected 83 duration seconds, got %v", updated.DurationSeconds)
	}
	if !updated.Finished() {
		t.Fatal("expected Finished to report true")
	}
}

func TestMarkFailedTruncatesMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	entry := testsupport.RecordEntry(t, store, "https://example.com/ep2")

	long := strings.Repeat("x", 600)
	if err := store.MarkFailed(ctx, entry.ID, long); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	updated, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != history.StatusFailed {
		t.Fatalf("expected failed, got %s", updated.Status)
	}
	if len(updated.ErrorMessage) != 500 {
		t.Fatalf("expected truncated message of 500 chars, got %d", len(updated.ErrorMessage))
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	var last int64
	for i := 0; i < 3; i++ {
		entry := testsupport.RecordEntry(t, store, fmt.Sprintf("https://example.com/ep%d", i))
		last = entry.ID
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(limited))
	}
	if limited[0].ID != last {
		t.Fatalf("expected newest entry first, got id %d", limited[0].ID)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestClearFinishedKeepsRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	completed := testsupport.RecordEntry(t, store, "https://example.com/done")
	failed := testsupport.RecordEntry(t, store, "https://example.com/broken")
	running := testsupport.RecordEntry(t, store, "https://example.com/active")

	if err := store.MarkCompleted(ctx, completed.ID, "Done", "/out/done.txt", time.Minute); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if err := store.MarkFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	removed, err := store.ClearFinished(ctx)
	if err != nil {
		t.Fatalf("ClearFinished failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	remaining, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != running.ID {
		t.Fatalf("expected only running entry to remain, got %#v", remaining)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	entry, err := first.Record(context.Background(), "https://example.com/persist", "", "")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	fetched, err := second.GetByID(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourceURL != "https://example.com/persist" {
		t.Fatalf("expected entry to survive reopen, got %#v", fetched)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
