package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. The Gemini API key is
// deliberately not required here: post-processing commands run without one,
// and RequireGeminiKey covers the commands that do need it.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateTranscript(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateAudioCache(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// RequireGeminiKey reports an actionable error when no API key is configured.
func (c *Config) RequireGeminiKey() error {
	if strings.TrimSpace(c.Gemini.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/quill/config.toml"
	}
	return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'quill config init')", defaultPath)
}

func (c *Config) validateGemini() error {
	return ensurePositive(
		positiveField{"gemini.request_timeout", c.Gemini.RequestTimeout},
		positiveField{"gemini.upload_timeout", c.Gemini.UploadTimeout},
		positiveField{"gemini.activation_timeout", c.Gemini.ActivationTimeout},
		positiveField{"gemini.poll_interval", c.Gemini.PollInterval},
		positiveField{"gemini.max_attempts", c.Gemini.MaxAttempts},
		positiveField{"gemini.retry_backoff", c.Gemini.RetryBackoff},
	)
}

func (c *Config) validateTranscript() error {
	if c.Transcript.MaxSegmentDuration <= 0 {
		return errors.New("transcript.max_segment_duration must be positive (seconds)")
	}
	if len(c.Transcript.Speakers) == 0 {
		return errors.New("transcript.speakers must include at least one name")
	}
	return nil
}

func (c *Config) validateFetch() error {
	return ensurePositive(
		positiveField{"fetch.timeout", c.Fetch.Timeout},
		positiveField{"fetch.retries", c.Fetch.Retries},
	)
}

func (c *Config) validateAudioCache() error {
	if c.AudioCache.Enabled {
		if strings.TrimSpace(c.AudioCache.Dir) == "" {
			return errors.New("audio_cache.dir must be set when audio_cache.enabled is true")
		}
		if c.AudioCache.MaxGiB <= 0 {
			return errors.New("audio_cache.max_gib must be positive when audio_cache.enabled is true")
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

type positiveField struct {
	name  string
	value int
}

// ensurePositive checks fields in declaration order so the first invalid
// field is the one reported.
func ensurePositive(fields ...positiveField) error {
	for _, field := range fields {
		if field.value <= 0 {
			return fmt.Errorf("%s must be positive", field.name)
		}
	}
	return nil
}
