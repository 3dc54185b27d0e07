package config

import (
	"fmt"
	"math"

	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := translate.ValidateProvider(c.Translation.Provider); err != nil {
		return fmt.Errorf("%w: translation.provider: %w", ErrInvalid, err)
	}
	if err := synth.ValidateProvider(c.Synthesis.Provider); err != nil {
		return fmt.Errorf("%w: synthesis.provider: %w", ErrInvalid, err)
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.ChunkSeconds < 30 {
		return fmt.Errorf("%w: transcription.chunk_seconds must be at least 30, got %d", ErrInvalid, t.ChunkSeconds)
	}
	if t.OverlapSeconds < 0 || t.OverlapSeconds >= t.ChunkSeconds {
		return fmt.Errorf("%w: transcription.overlap_seconds must be in [0, chunk_seconds), got %d", ErrInvalid, t.OverlapSeconds)
	}
	if t.Parallel < 1 || t.Parallel > transcribe.MaxRecommendedParallel {
		return fmt.Errorf("%w: transcription.parallel must be between 1 and %d, got %d",
			ErrInvalid, transcribe.MaxRecommendedParallel, t.Parallel)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	a := c.Alignment
	if !(a.ToleranceSeconds > 0) || math.IsInf(a.ToleranceSeconds, 0) {
		return fmt.Errorf("%w: alignment.tolerance_seconds must be positive, got %v", ErrInvalid, a.ToleranceSeconds)
	}
	if !(a.DefaultFactor > 0) || math.IsInf(a.DefaultFactor, 0) {
		return fmt.Errorf("%w: alignment.default_factor must be positive, got %v", ErrInvalid, a.DefaultFactor)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be auto, console or json, got %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
