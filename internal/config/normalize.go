package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeTranscript()
	c.normalizeFetch()
	if err := c.normalizeAudioCache(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.Gemini.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
}

func (c *Config) normalizeTranscript() {
	speakers := make([]string, 0, len(c.Transcript.Speakers))
	for _, speaker := range c.Transcript.Speakers {
		trimmed := strings.TrimSpace(speaker)
		if trimmed == "" {
			continue
		}
		speakers = append(speakers, trimmed)
	}
	if len(speakers) == 0 {
		speakers = defaultSpeakers()
	}
	c.Transcript.Speakers = speakers
}

func (c *Config) normalizeFetch() {
	c.Fetch.YtDlpBinary = strings.TrimSpace(c.Fetch.YtDlpBinary)
	if c.Fetch.YtDlpBinary == "" {
		c.Fetch.YtDlpBinary = defaultYtDlpBinary
	}
	c.Fetch.AudioFormat = strings.ToLower(strings.TrimSpace(c.Fetch.AudioFormat))
	if c.Fetch.AudioFormat == "" {
		c.Fetch.AudioFormat = defaultAudioFormat
	}
	c.Fetch.AudioQuality = strings.TrimSpace(c.Fetch.AudioQuality)
	if c.Fetch.AudioQuality == "" {
		c.Fetch.AudioQuality = defaultAudioQuality
	}
}

func (c *Config) normalizeAudioCache() error {
	var err error
	if strings.TrimSpace(c.AudioCache.Dir) == "" {
		c.AudioCache.Dir = defaultAudioCacheDir()
	}
	if c.AudioCache.Dir, err = expandPath(c.AudioCache.Dir); err != nil {
		return fmt.Errorf("audio_cache.dir: %w", err)
	}
	if c.AudioCache.MaxGiB <= 0 {
		c.AudioCache.MaxGiB = defaultAudioCacheMaxGiB
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
