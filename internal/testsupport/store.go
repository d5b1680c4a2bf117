package testsupport

import (
	"context"
	"testing"

	"quill/internal/config"
	"quill/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	if store == nil {
		t.Fatal("history.Open returned nil store for enabled config")
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordEntry inserts a running history entry for tests using the provided store.
func RecordEntry(t testing.TB, store *history.Store, sourceURL string) *history.Entry {
	t.Helper()

	entry, err := store.Record(context.Background(), sourceURL, "gemini-test", "Host, Guest")
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return entry
}
