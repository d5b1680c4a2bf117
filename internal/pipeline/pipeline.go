package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"quill/internal/audiocache"
	"quill/internal/config"
	"quill/internal/fetch"
	"quill/internal/history"
	"quill/internal/logging"
	"quill/internal/notifications"
	"quill/internal/services/gemini"
)

// AudioFetcher retrieves the audio track for a media URL into a directory.
type AudioFetcher interface {
	Fetch(ctx context.Context, url, destDir string) (fetch.Result, error)
}

// Transcriber produces a raw transcript for a staged audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, prompt string) (string, error)
}

// Options wires the runner's collaborators. Nil fields fall back to the
// production implementations built from Config.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Fetcher     AudioFetcher
	Transcriber Transcriber
	Cache       *audiocache.Manager
	History     *history.Store
	Notifier    notifications.Service
}

// Runner executes one transcription job end to end.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	fetcher     AudioFetcher
	transcriber Transcriber
	cache       *audiocache.Manager
	history     *history.Store
	notifier    notifications.Service
}

// NewRunner builds a Runner from the provided options.
func NewRunner(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewFetcher(fetch.Config{
			Binary:         cfg.Fetch.YtDlpBinary,
			AudioFormat:    cfg.Fetch.AudioFormat,
			AudioQuality:   cfg.Fetch.AudioQuality,
			TimeoutSeconds: cfg.Fetch.Timeout,
			Retries:        cfg.Fetch.Retries,
		})
	}

	cache := opts.Cache
	if cache == nil {
		cache = audiocache.NewManager(cfg, logger)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	return &Runner{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		fetcher:     fetcher,
		transcriber: opts.Transcriber,
		cache:       cache,
		history:     opts.History,
		notifier:    notifier,
	}, nil
}

// transcriberFor returns the injected transcriber or builds a Gemini client,
// applying the per-request model override when set.
func (r *Runner) transcriberFor(model string) Transcriber {
	if r.transcriber != nil {
		return r.transcriber
	}
	gcfg := gemini.Config{
		APIKey:                   r.cfg.Gemini.APIKey,
		BaseURL:                  r.cfg.Gemini.BaseURL,
		Model:                    r.cfg.Gemini.Model,
		RequestTimeoutSeconds:    r.cfg.Gemini.RequestTimeout,
		UploadTimeoutSeconds:     r.cfg.Gemini.UploadTimeout,
		ActivationTimeoutSeconds: r.cfg.Gemini.ActivationTimeout,
		PollIntervalSeconds:      r.cfg.Gemini.PollInterval,
		MaxAttempts:              r.cfg.Gemini.MaxAttempts,
		RetryBackoffSeconds:      r.cfg.Gemini.RetryBackoff,
	}
	if model != "" {
		gcfg.Model = model
	}
	return gemini.NewClient(gcfg)
}
