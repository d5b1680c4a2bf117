package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"quill/internal/config"
	"quill/internal/deps"
	"quill/internal/services/gemini"
)

// CheckGemini verifies that the Gemini API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckGemini(ctx context.Context, cfg config.Gemini) Result {
	const name = "Gemini API"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := gemini.NewClient(gemini.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}, gemini.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeGeminiError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// minStagingFreeBytes is the free-space headroom required to stage an audio download.
const minStagingFreeBytes = 512 * 1024 * 1024

// CheckStagingSpace verifies the staging filesystem has headroom for a download.
func CheckStagingSpace(path string) Result {
	const name = "Staging free space"

	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minStagingFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%.1f GiB free, need at least %.1f GiB", bytesToGiB(free), bytesToGiB(minStagingFreeBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB free", bytesToGiB(free))}
}

func bytesToGiB(v uint64) float64 {
	return float64(v) / (1 << 30)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
// The check command uses this to avoid duplicating the requirements list.
// Gemini connectivity is not included here because it needs API credentials.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetch.YtDlpBinary,
			Description: "Required for downloading audio from media URLs",
		},
	}
	results := deps.CheckBinaries(requirements)
	results = append(results, deps.CheckFFmpegForYtDlp(cfg.Fetch.YtDlpBinary))
	return results
}

// summarizeGeminiError produces a human-readable summary for Gemini health check failures.
func summarizeGeminiError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Gemini API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Gemini API unreachable)"
	}
	return err.Error()
}
