package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"quill/internal/fetch"
	"quill/internal/fileutil"
	"quill/internal/logging"
	"quill/internal/prompt"
	"quill/internal/services"
	"quill/internal/textutil"
	"quill/internal/transcript"
)

// Request describes one transcription job.
type Request struct {
	// URL is the media page or direct audio link to transcribe.
	URL string
	// Speakers overrides the configured speaker names when non-empty.
	Speakers []string
	// OutputPath overrides the derived <title>.txt location when non-empty.
	OutputPath string
	// Model overrides the configured Gemini model when non-empty.
	Model string
	// MaxSegmentDuration overrides the configured merge window when positive.
	MaxSegmentDuration int
	// KeepAudio retains the staged download after the run.
	KeepAudio bool
	// NoCache bypasses the audio cache for both restore and store.
	NoCache bool
}

// Result reports a finished transcription job.
type Result struct {
	JobID      string
	Title      string
	OutputPath string
	Transcript string
	// AudioPath points at the retained download; set only with KeepAudio.
	AudioPath string
	CacheHit  bool
	Duration  time.Duration
	HistoryID int64
}

// Run executes the full pipeline for one request: stage, resolve audio,
// transcribe, post-process, write output. History rows and notifications are
// best effort on both success and failure.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	var res Result

	url := strings.TrimSpace(req.URL)
	if url == "" {
		return res, services.Wrap(services.ErrValidation, "pipeline", "run", "media url is required", nil)
	}

	res.JobID = uuid.NewString()
	start := time.Now()

	ctx = services.WithJobID(ctx, res.JobID)
	logger := logging.WithContext(ctx, r.logger)

	speakers := normalizeSpeakers(req.Speakers, r.cfg.Transcript.Speakers)
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = r.cfg.Gemini.Model
	}

	logger.Info("transcription job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_url", url),
		logging.String("model", model),
	)

	if entry, err := r.history.Record(ctx, url, model, strings.Join(speakers, ", ")); err != nil {
		logger.Warn("history record failed", logging.Error(err))
	} else if entry != nil {
		res.HistoryID = entry.ID
	}

	runErr := r.execute(ctx, &res, req, url, model, speakers)
	res.Duration = time.Since(start)

	if runErr != nil {
		logger.Error("transcription job failed",
			logging.String(logging.FieldEventType, "job_failure"),
			logging.Error(runErr),
		)
		if res.HistoryID != 0 {
			if err := r.history.MarkFailed(ctx, res.HistoryID, runErr.Error()); err != nil {
				logger.Warn("history update failed", logging.Error(err))
			}
		}
		if err := r.notifier.NotifyError(ctx, runErr, "transcription"); err != nil {
			logger.Debug("error notification failed", logging.Error(err))
		}
		return res, runErr
	}

	if res.HistoryID != 0 {
		if err := r.history.MarkCompleted(ctx, res.HistoryID, res.Title, res.OutputPath, res.Duration); err != nil {
			logger.Warn("history update failed", logging.Error(err))
		}
	}
	if err := r.notifier.NotifyTranscriptComplete(ctx, res.Title, res.OutputPath); err != nil {
		logger.Debug("completion notification failed", logging.Error(err))
	}

	logger.Info("transcription job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("title", res.Title),
		logging.String("output_path", res.OutputPath),
		logging.Duration("job_duration", res.Duration),
	)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, res *Result, req Request, url, model string, speakers []string) error {
	if r.transcriber == nil && strings.TrimSpace(r.cfg.Gemini.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "gemini", "transcribe", "api key missing", nil)
	}

	jobDir := filepath.Join(r.cfg.Paths.StagingDir, res.JobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "stage", "create staging directory", err)
	}
	defer func() {
		if req.KeepAudio {
			return
		}
		if err := os.RemoveAll(jobDir); err != nil {
			r.logger.Warn("staging cleanup failed",
				logging.String("staging_dir", jobDir),
				logging.Error(err),
			)
		}
	}()

	fetchCtx := services.WithStage(ctx, "fetch")
	audioPath, title, cacheHit, err := r.resolveAudio(fetchCtx, logging.WithContext(fetchCtx, r.logger), url, jobDir, req.NoCache)
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		title = fetch.DeriveTitle(filepath.Base(audioPath))
	}
	res.Title = title
	res.CacheHit = cacheHit
	if req.KeepAudio {
		res.AudioPath = audioPath
	}

	genCtx := services.WithStage(ctx, "transcribe")
	genLogger := logging.WithContext(genCtx, r.logger)
	genLogger.Info("transcribing audio",
		logging.String("audio_file", filepath.Base(audioPath)),
		logging.String("model", model),
	)
	raw, err := r.transcriberFor(req.Model).Transcribe(genCtx, audioPath, prompt.Build(speakers))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "gemini", "transcribe", title, err)
	}

	procCtx := services.WithStage(ctx, "process")
	maxDuration := req.MaxSegmentDuration
	if maxDuration <= 0 {
		maxDuration = r.cfg.Transcript.MaxSegmentDuration
	}
	processed := transcript.Process(raw, transcript.Options{
		MaxSegmentDuration: maxDuration,
		Logger:             logging.WithContext(procCtx, r.logger),
	})
	res.Transcript = processed

	outputPath, err := r.writeOutput(req.OutputPath, title, res.JobID, processed)
	if err != nil {
		return err
	}
	res.OutputPath = outputPath
	return nil
}

// resolveAudio restores a cached download or fetches a fresh one. Cache
// failures degrade to a fetch; a failed cache store never fails the job.
func (r *Runner) resolveAudio(ctx context.Context, logger *slog.Logger, url, jobDir string, noCache bool) (audioPath, title string, cacheHit bool, err error) {
	if !noCache {
		hit, ok, restoreErr := r.cache.Restore(ctx, url, jobDir)
		if restoreErr != nil {
			logger.Warn("audio cache restore failed", logging.Error(restoreErr))
		} else if ok {
			logger.Info("audio restored from cache",
				logging.String(logging.FieldEventType, "cache_hit"),
				logging.String("audio_file", filepath.Base(hit.Path)),
			)
			return hit.Path, hit.Title, true, nil
		}
	}

	result, fetchErr := r.fetcher.Fetch(ctx, url, jobDir)
	if fetchErr != nil {
		return "", "", false, services.Wrap(services.ErrExternalTool, "fetch", "download audio", url, fetchErr)
	}
	logger.Info("audio downloaded",
		logging.String("audio_file", filepath.Base(result.Path)),
		logging.String("title", result.Title),
	)

	if !noCache {
		if storeErr := r.cache.Store(ctx, url, result.Title, result.Path); storeErr != nil {
			logger.Warn("audio cache store failed", logging.Error(storeErr))
		}
	}
	return result.Path, result.Title, false, nil
}

// writeOutput writes the processed transcript atomically, deriving
// <title>.txt under the output directory when no explicit path is given.
func (r *Runner) writeOutput(explicit, title, jobID, processed string) (string, error) {
	outputPath := strings.TrimSpace(explicit)
	if outputPath == "" {
		name := textutil.SanitizeFileName(title)
		if name == "" {
			name = jobID
		}
		outputPath = filepath.Join(r.cfg.Paths.OutputDir, name+".txt")
	}
	if err := fileutil.WriteFileAtomic(outputPath, []byte(processed), 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "write output", outputPath, err)
	}
	return outputPath, nil
}

func normalizeSpeakers(requested, configured []string) []string {
	cleaned := make([]string, 0, len(requested))
	for _, speaker := range requested {
		if speaker = strings.TrimSpace(speaker); speaker != "" {
			cleaned = append(cleaned, speaker)
		}
	}
	if len(cleaned) > 0 {
		return cleaned
	}
	if len(configured) > 0 {
		return configured
	}
	return []string{"Host", "Guest"}
}

// Describe renders a one-line summary used by CLI progress output.
func (res Result) Describe() string {
	source := "downloaded"
	if res.CacheHit {
		source = "cached"
	}
	return fmt.Sprintf("%s (%s audio, %s)", res.Title, source, res.Duration.Round(time.Second))
}
