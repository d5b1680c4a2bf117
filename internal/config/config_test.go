package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"quill/internal/config"
)

func TestLoadDefaultsUseEnvGeminiKeyAndExpandPaths(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "quill", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != config.Default().Gemini.Model {
		t.Fatalf("unexpected model: %q", cfg.Gemini.Model)
	}
	if cfg.Transcript.MaxSegmentDuration != 30 {
		t.Fatalf("unexpected max segment duration: %d", cfg.Transcript.MaxSegmentDuration)
	}
	if len(cfg.Transcript.Speakers) != 2 || cfg.Transcript.Speakers[0] != "Host" {
		t.Fatalf("unexpected default speakers: %v", cfg.Transcript.Speakers)
	}
	if !cfg.AudioCache.Enabled {
		t.Fatal("expected audio cache enabled by default")
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.AudioCache.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadFallsBackToGoogleAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "legacy-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "quill.toml")

	type payload struct {
		Gemini struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"gemini"`
		Transcript struct {
			MaxSegmentDuration int      `toml:"max_segment_duration"`
			Speakers           []string `toml:"speakers"`
		} `toml:"transcript"`
		Fetch struct {
			AudioFormat string `toml:"audio_format"`
		} `toml:"fetch"`
	}
	custom := payload{}
	custom.Gemini.APIKey = "abc123"
	custom.Gemini.Model = "gemini-2.0-flash"
	custom.Transcript.MaxSegmentDuration = 45
	custom.Transcript.Speakers = []string{" Brady ", "", "Tim"}
	custom.Fetch.AudioFormat = "M4A"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Gemini.APIKey != "abc123" {
		t.Fatalf("expected key from file, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("expected model override, got %q", cfg.Gemini.Model)
	}
	if cfg.Transcript.MaxSegmentDuration != 45 {
		t.Fatalf("expected merge window 45, got %d", cfg.Transcript.MaxSegmentDuration)
	}
	want := []string{"Brady", "Tim"}
	if len(cfg.Transcript.Speakers) != len(want) {
		t.Fatalf("unexpected speakers: %v", cfg.Transcript.Speakers)
	}
	for i, speaker := range want {
		if cfg.Transcript.Speakers[i] != speaker {
			t.Fatalf("speaker %d = %q, want %q", i, cfg.Transcript.Speakers[i], speaker)
		}
	}
	if cfg.Fetch.AudioFormat != "m4a" {
		t.Fatalf("expected lowercased audio format, got %q", cfg.Fetch.AudioFormat)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "quill.toml")
	body := "[transcript]\nmax_segment_duration = -1\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "transcript.max_segment_duration") {
		t.Fatalf("expected field name in error, got %v", err)
	}
}

func TestValidateReportsFirstInvalidField(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.RequestTimeout = 0
	cfg.Gemini.PollInterval = -1
	cfg.Gemini.RetryBackoff = 0

	// Several fields are invalid at once; the error must name the same one
	// on every run.
	for i := 0; i < 10; i++ {
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "gemini.request_timeout") {
			t.Fatalf("expected gemini.request_timeout to be reported first, got %v", err)
		}
	}
}

func TestRequireGeminiKey(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = ""
	err := cfg.RequireGeminiKey()
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !strings.Contains(err.Error(), "quill config init") {
		t.Fatalf("expected hint in error, got %v", err)
	}

	cfg.Gemini.APIKey = "present"
	if err := cfg.RequireGeminiKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "sample-key")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Gemini.Model != config.Default().Gemini.Model {
		t.Fatalf("unexpected model from sample: %q", cfg.Gemini.Model)
	}
}
