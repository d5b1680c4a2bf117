package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/deps"
	"quill/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external dependencies and runtime readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				line, failed := dependencyStatusLine(status, colorize)
				if failed {
					failures++
				}
				fmt.Fprintln(out, line)
			}

			for _, line := range renderSectionHeader("Runtime", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			for _, line := range renderSectionHeader("Services", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range []preflight.Result{
				preflight.CheckNotificationsFromConfig(cfg),
				preflight.CheckHistoryFromConfig(cfg),
			} {
				line, failed := serviceStatusLine(result, colorize)
				if failed {
					failures++
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, cacheStatusLine(ctx, cmd, colorize))

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func dependencyStatusLine(status deps.Status, colorize bool) (string, bool) {
	if status.Available {
		detail := "Ready"
		if status.Command != "" {
			detail = fmt.Sprintf("Ready (command: %s)", status.Command)
		}
		return renderStatusLine(status.Name, statusOK, detail, colorize), false
	}
	detail := status.Detail
	if detail == "" {
		detail = "not available"
	}
	if status.Optional {
		return renderStatusLine(status.Name, statusWarn, detail, colorize), false
	}
	return renderStatusLine(status.Name, statusError, detail, colorize), true
}

func serviceStatusLine(result preflight.Result, colorize bool) (string, bool) {
	switch {
	case !result.Passed:
		return renderStatusLine(result.Name, statusError, result.Detail, colorize), true
	case result.Detail == "Disabled":
		return renderStatusLine(result.Name, statusWarn, result.Detail, colorize), false
	default:
		return renderStatusLine(result.Name, statusOK, result.Detail, colorize), false
	}
}

func cacheStatusLine(ctx *commandContext, cmd *cobra.Command, colorize bool) string {
	manager, warn, err := cacheManager(ctx)
	if err != nil {
		return renderStatusLine("Audio cache", statusError, err.Error(), colorize)
	}
	if manager == nil {
		detail := "Disabled"
		if warn != "" {
			detail = warn
		}
		return renderStatusLine("Audio cache", statusWarn, detail, colorize)
	}
	stats, err := manager.Stats(cmd.Context())
	if err != nil {
		return renderStatusLine("Audio cache", statusError, err.Error(), colorize)
	}
	detail := fmt.Sprintf("%d entries, %s / %s", stats.Entries, humanBytes(stats.TotalBytes), humanBytes(stats.MaxBytes))
	return renderStatusLine("Audio cache", statusOK, detail, colorize)
}
