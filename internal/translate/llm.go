package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/lang"
)

// Defaults for the OpenAI-compatible chat provider (Typhoon).
const (
	DefaultLLMBaseURL = "https://api.opentyphoon.ai/v1"
	DefaultLLMModel   = "typhoon-v2.1-12b-instruct"

	defaultLLMMaxTokens   = 4096
	defaultLLMTemperature = 0.3
	defaultLLMMaxRetries  = 3
	defaultLLMBaseDelay   = 1 * time.Second
	defaultLLMMaxDelay    = 30 * time.Second
)

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ chatCompleter = (*openai.Client)(nil)

// LLMTranslator translates with a chat completion model.
type LLMTranslator struct {
	client     chatCompleter
	model      string
	maxTokens  int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger

	keyMissing bool
}

// LLMOption configures an LLMTranslator.
type LLMOption func(*LLMTranslator)

// WithLLMModel sets the chat model. Empty keeps DefaultLLMModel.
func WithLLMModel(model string) LLMOption {
	return func(t *LLMTranslator) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLLMMaxRetries sets the maximum number of retry attempts.
func WithLLMMaxRetries(n int) LLMOption {
	return func(t *LLMTranslator) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithLLMRetryDelays sets the base and max delays for exponential backoff.
func WithLLMRetryDelays(base, max time.Duration) LLMOption {
	return func(t *LLMTranslator) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithLLMLogger sets the logger for retry warnings.
func WithLLMLogger(l *slog.Logger) LLMOption {
	return func(t *LLMTranslator) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewLLMTranslator creates an LLMTranslator for the chat endpoint at baseURL
// (DefaultLLMBaseURL when empty). Without an apiKey every Translate call fails
// with ErrAPIKeyMissing.
func NewLLMTranslator(baseURL, apiKey string, opts ...LLMOption) *LLMTranslator {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultLLMBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	t := newLLMTranslator(openai.NewClientWithConfig(cfg), opts...)
	t.keyMissing = apiKey == ""
	return t
}

func newLLMTranslator(client chatCompleter, opts ...LLMOption) *LLMTranslator {
	t := &LLMTranslator{
		client:     client,
		model:      DefaultLLMModel,
		maxTokens:  defaultLLMMaxTokens,
		maxRetries: defaultLLMMaxRetries,
		baseDelay:  defaultLLMBaseDelay,
		maxDelay:   defaultLLMMaxDelay,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate implements Translator. Blank input is returned without a request.
func (t *LLMTranslator) Translate(ctx context.Context, text string, source, target lang.Code) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if t.keyMissing {
		return "", fmt.Errorf("%w: %s needs an API key", ErrAPIKeyMissing, t.model)
	}

	req := openai.ChatCompletionRequest{
		Model:       t.model,
		MaxTokens:   t.maxTokens,
		Temperature: defaultLLMTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(source, target)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			t.logger.Warn("translation request failed, retrying",
				"provider", ProviderLLM, "attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := t.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return "", ErrEmptyResponse
		}
		return out, nil
	}, apierr.IsRetryable)
}

func systemPrompt(source, target lang.Code) string {
	from := "the source language"
	if source != "" {
		from = source.DisplayName()
	}
	return fmt.Sprintf("You are a professional subtitle translator. Translate the user's text from %s to %s. "+
		"Answer only in %s with the translation itself: no notes, no transliteration, no quotes.",
		from, target.DisplayName(), target.DisplayName())
}
