package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegForYtDlp reports the FFmpeg binary yt-dlp will execute.
//
// yt-dlp needs FFmpeg to extract audio tracks. Its lookup prefers an ffmpeg
// binary that sits next to the yt-dlp executable (the bundled installs ship
// one there) and falls back to resolving "ffmpeg" from PATH. This helper
// mirrors that logic so quill status output matches yt-dlp's behaviour.
func CheckFFmpegForYtDlp(ytDlpCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp for audio extraction",
	}

	ytDlpBinary := strings.TrimSpace(ytDlpCommand)
	if ytDlpBinary != "" {
		if resolved, err := exec.LookPath(ytDlpBinary); err == nil {
			if candidate, ok := ffmpegSidecarCandidate(resolved); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	ffmpegName := "ffmpeg"
	if ffmpegPath, err := exec.LookPath(ffmpegName); err == nil {
		result.Command = ffmpegPath
		result.Available = true
		return result
	}

	result.Command = ffmpegName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", ffmpegName)
	return result
}

func ffmpegSidecarCandidate(ytDlpPath string) (string, bool) {
	if ytDlpPath == "" {
		return "", false
	}
	dir := filepath.Dir(ytDlpPath)
	return filepath.Join(dir, executableName("ffmpeg")), true
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
