package preflight

import (
	"context"

	"quill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging and output directories (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))

	// Audio cache directory (when enabled)
	if cfg.AudioCache.Enabled && cfg.AudioCache.Dir != "" {
		results = append(results, CheckDirectoryAccess("Audio cache directory", cfg.AudioCache.Dir))
	}

	// Free space for the staged download
	results = append(results, CheckStagingSpace(cfg.Paths.StagingDir))

	// Gemini API
	results = append(results, CheckGemini(ctx, cfg.Gemini))

	return results
}

// Passed reports whether every result in the set passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
