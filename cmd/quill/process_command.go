package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/fileutil"
	"quill/internal/transcript"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var maxSegmentDuration int

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Post-process a raw transcript from a file or stdin",
		Long: "Run only the transcript post-processor: merge same-speaker captions\n" +
			"inside the configured window and pass other lines through verbatim.\n" +
			"Reads the file argument when given, stdin otherwise. No API key needed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readProcessInput(cmd, args)
			if err != nil {
				return err
			}

			maxDuration := maxSegmentDuration
			if maxDuration <= 0 {
				if cfg := ctx.configValue(); cfg != nil {
					maxDuration = cfg.Transcript.MaxSegmentDuration
				}
			}

			logger, err := ctx.newConsoleLogger("process")
			if err != nil {
				return err
			}
			processed := transcript.Process(raw, transcript.Options{
				MaxSegmentDuration: maxDuration,
				Logger:             logger,
			})

			target := strings.TrimSpace(outputPath)
			if target == "" {
				fmt.Fprintln(cmd.OutOrStdout(), processed)
				return nil
			}
			if err := fileutil.WriteFileAtomic(target, []byte(processed), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the processed transcript to this file instead of stdout")
	cmd.Flags().IntVar(&maxSegmentDuration, "max-segment-duration", 0, "Merge window in seconds (default from config)")

	return cmd
}

func readProcessInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(payload), nil
	}
	payload, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(payload), nil
}
