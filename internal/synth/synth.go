// Package synth turns text into a speech audio file.
//
// Providers write MP3. A Synthesizer either writes the complete file at outPath
// or returns an error without creating it.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/insee-t/tt/internal/lang"
)

// Provider names accepted in the [synthesis] config section.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// Synthesizer speaks text in language and writes the audio to outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, language lang.Code, outPath string) error
}

// Compile-time interface compliance checks.
var (
	_ Synthesizer = (*Fallback)(nil)
	_ Synthesizer = (*GoogleTTS)(nil)
	_ Synthesizer = (*OpenAISpeech)(nil)
)

// ValidateProvider reports whether name is a known provider.
func ValidateProvider(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGoogle, ProviderOpenAI:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrUnsupportedProvider, name, ProviderGoogle, ProviderOpenAI)
	}
}

// Fallback tries a primary configuration, then an alternate exactly once.
type Fallback struct {
	primary   Synthesizer
	alternate Synthesizer
	logger    *slog.Logger
}

// WithAlternate returns a Synthesizer that retries a failed primary call once
// with alternate. A nil logger discards warnings.
func WithAlternate(primary, alternate Synthesizer, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fallback{primary: primary, alternate: alternate, logger: logger}
}

// Synthesize implements Synthesizer. When both attempts fail the error wraps
// ErrSynthesisFailed and both causes.
func (f *Fallback) Synthesize(ctx context.Context, text string, language lang.Code, outPath string) error {
	err := f.primary.Synthesize(ctx, text, language, outPath)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrEmptyText) {
		return fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	f.logger.Warn("speech synthesis failed, retrying with alternate configuration", "error", err)

	altErr := f.alternate.Synthesize(ctx, text, language, outPath)
	if altErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSynthesisFailed, errors.Join(
		fmt.Errorf("primary: %w", err),
		fmt.Errorf("alternate: %w", altErr),
	))
}

// writeAudio writes data to outPath, removing any partial file on failure.
func writeAudio(outPath string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}
