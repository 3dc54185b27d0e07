package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/insee-t/tt/internal/lang"
)

func (c *Config) normalize() error {
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLanguages() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"languages.source", &c.Languages.Source},
		{"languages.pivot", &c.Languages.Pivot},
		{"languages.target", &c.Languages.Target},
	}
	for _, f := range fields {
		code, err := lang.Parse(*f.value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, f.key, err)
		}
		*f.value = code.String()
	}
	return nil
}

func (c *Config) normalizeFFmpeg() error {
	var err error
	if c.FFmpeg.FFmpegPath, err = expandPath(c.FFmpeg.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg.ffmpeg_path: %w", err)
	}
	if c.FFmpeg.FFprobePath, err = expandPath(c.FFmpeg.FFprobePath); err != nil {
		return fmt.Errorf("ffmpeg.ffprobe_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Transcription.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Transcription.BaseURL), "/")
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	c.Translation.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Translation.BaseURL), "/")
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	c.Synthesis.Provider = strings.ToLower(strings.TrimSpace(c.Synthesis.Provider))
	c.Synthesis.Model = strings.TrimSpace(c.Synthesis.Model)
	c.Synthesis.AlternateModel = strings.TrimSpace(c.Synthesis.AlternateModel)
	c.Synthesis.Voice = strings.TrimSpace(c.Synthesis.Voice)
}

// normalizeLogging applies TT_LOG_LEVEL over the file value.
func (c *Config) normalizeLogging() {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = v
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
