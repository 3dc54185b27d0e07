// Package translate moves text between languages through hosted translation
// services: Google Cloud Translation and OpenAI-compatible chat models.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insee-t/tt/internal/lang"
)

// Provider names accepted in the [translation] config section.
const (
	ProviderGoogle = "google"
	ProviderLLM    = "llm"
)

// Translator translates text from source to target.
type Translator interface {
	Translate(ctx context.Context, text string, source, target lang.Code) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ Translator = (*Degrading)(nil)
	_ Translator = (*GoogleTranslator)(nil)
	_ Translator = (*LLMTranslator)(nil)
)

// ValidateProvider reports whether name is a known provider.
func ValidateProvider(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGoogle, ProviderLLM:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrUnsupportedProvider, name, ProviderGoogle, ProviderLLM)
	}
}

// Degrading wraps a Translator and returns the input text unchanged when the
// wrapped call fails. Callers that need to know whether translation happened
// check the script of the result.
//
// Cancellation is not degraded: a cancelled context returns the input text
// together with the context error so the caller can stop.
type Degrading struct {
	next   Translator
	logger *slog.Logger
}

// NewDegrading wraps next. A nil logger discards warnings.
func NewDegrading(next Translator, logger *slog.Logger) *Degrading {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Degrading{next: next, logger: logger}
}

// Translate implements Translator.
func (d *Degrading) Translate(ctx context.Context, text string, source, target lang.Code) (string, error) {
	out, err := d.next.Translate(ctx, text, source, target)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return text, ctx.Err()
	}
	d.logger.Warn("translation failed, passing text through untranslated",
		"source", source.String(), "target", target.String(), "error", err)
	return text, nil
}
