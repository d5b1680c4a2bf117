package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := historyStore(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
				return nil
			}
			table := renderTable(
				[]string{"ID", "Created", "Title", "Status", "Duration", "Output"},
				buildHistoryRows(entries),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show (0 for all)")
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := historyStore(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			var removed int64
			if clearAll {
				removed, err = store.Clear(cmd.Context())
			} else {
				removed, err = store.ClearFinished(cmd.Context())
			}
			if err != nil {
				return err
			}
			label := "finished entries"
			if clearAll {
				label = "history entries"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, label)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove running entries as well")
	return cmd
}

func historyStore(ctx *commandContext) (*history.Store, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg == nil || !cfg.History.Enabled {
		return nil, "History is disabled (set history.enabled = true in config.toml)", nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, "", err
	}
	return store, "", nil
}

func buildHistoryRows(entries []*history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = entry.SourceURL
		}
		output := strings.TrimSpace(entry.OutputPath)
		if output == "" {
			output = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.ID),
			entry.CreatedAt.UTC().Format("2006-01-02 15:04"),
			title,
			formatStatusLabel(string(entry.Status)),
			formatJobDuration(entry),
			output,
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatJobDuration(entry *history.Entry) string {
	if !entry.Finished() || entry.DurationSeconds <= 0 {
		return "-"
	}
	d := time.Duration(entry.DurationSeconds * float64(time.Second))
	return d.Round(time.Second).String()
}
