package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFetchDownloadsAudioAndTitle(t *testing.T) {
	destDir := t.TempDir()
	var gotName string
	var gotArgs []string

	fetcher := NewFetcher(Config{AudioFormat: "mp3", AudioQuality: "192", Retries: 3})
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		// Simulate yt-dlp writing the audio file and its info sidecar.
		if err := os.WriteFile(filepath.Join(destDir, "abc123.mp3"), []byte("audio"), 0o644); err != nil {
			return err
		}
		return os.WriteFile(
			filepath.Join(destDir, "abc123.info.json"),
			[]byte(`{"id":"abc123","title":"Numberphile: Graham's Number"}`),
			0o644,
		)
	})

	result, err := fetcher.Fetch(context.Background(), "https://youtu.be/abc123", destDir)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotName != "yt-dlp" {
		t.Fatalf("expected yt-dlp binary, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format mp3",
		"--audio-quality 192",
		"--write-info-json",
		"--retries 3",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected args to contain %q, got %q", want, joined)
		}
	}
	if gotArgs[len(gotArgs)-1] != "https://youtu.be/abc123" {
		t.Fatalf("expected url as final argument, got %q", gotArgs[len(gotArgs)-1])
	}
	if filepath.Base(result.Path) != "abc123.mp3" {
		t.Fatalf("unexpected audio path %q", result.Path)
	}
	if result.Title != "Numberphile: Graham's Number" {
		t.Fatalf("unexpected title %q", result.Title)
	}
}

func TestFetchFallsBackToDerivedTitle(t *testing.T) {
	destDir := t.TempDir()

	fetcher := NewFetcher(Config{})
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(destDir, "graham_numberphile-interview.mp3"), []byte("audio"), 0o644)
	})

	result, err := fetcher.Fetch(context.Background(), "https://youtu.be/abc123", destDir)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Title != "Graham Numberphile Interview" {
		t.Fatalf("expected derived title, got %q", result.Title)
	}
}

func TestFetchPrefersConfiguredFormat(t *testing.T) {
	destDir := t.TempDir()

	fetcher := NewFetcher(Config{AudioFormat: "mp3"})
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		// The source container survives alongside the extracted audio.
		if err := os.WriteFile(filepath.Join(destDir, "abc123.webm"), make([]byte, 4096), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(destDir, "abc123.mp3"), make([]byte, 128), 0o644)
	})

	result, err := fetcher.Fetch(context.Background(), "https://youtu.be/abc123", destDir)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if filepath.Base(result.Path) != "abc123.mp3" {
		t.Fatalf("expected configured mp3 format to win, got %q", result.Path)
	}
}

func TestFetchPropagatesRunnerError(t *testing.T) {
	fetcher := NewFetcher(Config{})
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("yt-dlp: video unavailable")
	})

	_, err := fetcher.Fetch(context.Background(), "https://youtu.be/gone", t.TempDir())
	if err == nil {
		t.Fatal("expected fetch to fail")
	}
	if !strings.Contains(err.Error(), "video unavailable") {
		t.Fatalf("expected downloader error to surface, got %v", err)
	}
}

func TestFetchFailsWithoutAudioOutput(t *testing.T) {
	fetcher := NewFetcher(Config{})
	fetcher.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	_, err := fetcher.Fetch(context.Background(), "https://youtu.be/abc123", t.TempDir())
	if err == nil {
		t.Fatal("expected fetch to fail when no audio file was produced")
	}
	if !strings.Contains(err.Error(), "no audio file found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchRequiresURL(t *testing.T) {
	fetcher := NewFetcher(Config{})
	if _, err := fetcher.Fetch(context.Background(), "  ", t.TempDir()); err == nil {
		t.Fatal("expected error for blank url")
	}
}
