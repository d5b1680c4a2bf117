package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime settings for audio downloads.
type Config struct {
	// Binary is the downloader executable to invoke.
	Binary string
	// AudioFormat is the target audio container (e.g., "mp3").
	AudioFormat string
	// AudioQuality is the target bitrate in kbit/s or a downloader quality preset.
	AudioQuality string
	// TimeoutSeconds bounds a single download run.
	TimeoutSeconds int
	// Retries is passed through to the downloader's own retry handling.
	Retries int
}

// Downloader configuration defaults.
const (
	DefaultBinary       = "yt-dlp"
	DefaultAudioFormat  = "mp3"
	DefaultAudioQuality = "192"
)

// Result describes a fetched audio file.
type Result struct {
	// Path is the downloaded audio file.
	Path string
	// Title is the media title reported by the source, if available.
	Title string
}

// Fetcher downloads the audio track of a remote URL via yt-dlp.
type Fetcher struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewFetcher creates a fetcher with the given configuration.
func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *Fetcher) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	f.commandRunner = runner
}

// Binary returns the downloader binary for logging and dependency checks.
func (f *Fetcher) Binary() string {
	if f.cfg.Binary != "" {
		return f.cfg.Binary
	}
	return DefaultBinary
}

func (f *Fetcher) audioFormat() string {
	if f.cfg.AudioFormat != "" {
		return strings.ToLower(f.cfg.AudioFormat)
	}
	return DefaultAudioFormat
}

func (f *Fetcher) audioQuality() string {
	if f.cfg.AudioQuality != "" {
		return f.cfg.AudioQuality
	}
	return DefaultAudioQuality
}

// Fetch downloads the audio track for url into destDir and returns the
// downloaded file along with the media title. destDir should be a fresh
// staging directory; the newest matching audio file in it wins.
func (f *Fetcher) Fetch(ctx context.Context, url, destDir string) (Result, error) {
	var result Result
	if strings.TrimSpace(url) == "" {
		return result, fmt.Errorf("fetch: url required")
	}
	if strings.TrimSpace(destDir) == "" {
		return result, fmt.Errorf("fetch: destination dir required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return result, fmt.Errorf("fetch: ensure destination dir: %w", err)
	}
	if f.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(f.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := f.buildArgs(url, destDir)
	if err := f.run(ctx, f.Binary(), args...); err != nil {
		return result, fmt.Errorf("fetch: %w", err)
	}

	path, err := findAudioFile(destDir, f.audioFormat())
	if err != nil {
		return result, fmt.Errorf("fetch: %w", err)
	}
	result.Path = path
	result.Title = readInfoTitle(path)
	if result.Title == "" {
		result.Title = DeriveTitle(path)
	}
	return result, nil
}

// run executes a command, using the custom runner if set.
func (f *Fetcher) run(ctx context.Context, name string, args ...string) error {
	if f.commandRunner != nil {
		return f.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the yt-dlp arguments for an audio-only download.
func (f *Fetcher) buildArgs(url, destDir string) []string {
	args := make([]string, 0, 16)
	args = append(args,
		"--no-playlist",
		"--extract-audio",
		"--audio-format", f.audioFormat(),
		"--audio-quality", f.audioQuality(),
		"--write-info-json",
		"--output", filepath.Join(destDir, "%(id)s.%(ext)s"),
		"--no-progress",
		"--quiet",
		"--no-warnings",
	)
	if f.cfg.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(f.cfg.Retries))
	}
	args = append(args, url)
	return args
}

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".mp4":  {},
	".wav":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".aac":  {},
	".webm": {},
}

// findAudioFile locates the downloaded audio file in dir, preferring the
// configured format over other audio extensions and larger files over
// smaller ones.
func findAudioFile(dir, preferredFormat string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list destination dir: %w", err)
	}
	type candidate struct {
		name      string
		size      int64
		preferred bool
	}
	preferredExt := "." + strings.TrimPrefix(strings.ToLower(preferredFormat), ".")
	files := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := audioExtensions[ext]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{
			name:      entry.Name(),
			size:      info.Size(),
			preferred: ext == preferredExt,
		})
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no audio file found in %s", dir)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].preferred != files[j].preferred {
			return files[i].preferred
		}
		if files[i].size == files[j].size {
			return files[i].name < files[j].name
		}
		return files[i].size > files[j].size
	})
	return filepath.Join(dir, files[0].name), nil
}

// readInfoTitle pulls the media title from the yt-dlp info JSON written next
// to the audio file. Returns "" when the sidecar is missing or unreadable.
func readInfoTitle(audioPath string) string {
	infoPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".info.json"
	payload, err := os.ReadFile(infoPath)
	if err != nil {
		return ""
	}
	var info struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &info); err != nil {
		return ""
	}
	return strings.TrimSpace(info.Title)
}
