package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/history"
	"quill/internal/logging"
	"quill/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var speakers []string
	var outputPath string
	var model string
	var maxSegmentDuration int
	var keepAudio bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "transcribe <url>",
		Short: "Download, transcribe, and post-process a media URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireGeminiKey(); err != nil {
				return err
			}

			base, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(base, "cli")

			store, err := history.Open(cfg)
			if err != nil {
				logger.Warn("history unavailable", logging.Error(err))
				store = nil
			}
			defer func() {
				_ = store.Close()
			}()

			runner, err := pipeline.NewRunner(pipeline.Options{
				Config:  cfg,
				Logger:  logger,
				History: store,
			})
			if err != nil {
				return err
			}

			res, err := runner.Run(cmd.Context(), pipeline.Request{
				URL:                args[0],
				Speakers:           speakers,
				OutputPath:         outputPath,
				Model:              model,
				MaxSegmentDuration: maxSegmentDuration,
				KeepAudio:          keepAudio,
				NoCache:            noCache,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completed %s\n", res.Describe())
			fmt.Fprintf(out, "Transcript written to %s\n", res.OutputPath)
			if res.AudioPath != "" {
				fmt.Fprintf(out, "Audio kept at %s\n", res.AudioPath)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&speakers, "speakers", nil, "Speaker names for diarization (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Transcript destination (default <title>.txt under the output dir)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Gemini model override")
	cmd.Flags().IntVar(&maxSegmentDuration, "max-segment-duration", 0, "Merge window in seconds (default from config)")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep the downloaded audio in the staging directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the audio cache")

	return cmd
}
