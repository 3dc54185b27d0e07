package synth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/lang"
)

// OpenAI speech configuration.
const (
	DefaultOpenAIModel     = openai.TTSModel1HD
	AlternateOpenAIModel   = openai.TTSModel1
	DefaultOpenAIVoice     = openai.VoiceAlloy
	OpenAIPieceLimit       = 4096
	defaultOpenAIRetries   = 3
	defaultOpenAIBaseDelay = 1 * time.Second
	defaultOpenAIMaxDelay  = 30 * time.Second
)

// speechCreator is the subset of *openai.Client used here.
type speechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

var _ speechCreator = (*openai.Client)(nil)

// OpenAISpeech speaks text through an OpenAI-compatible /audio/speech endpoint.
// The model detects the language from the text itself.
type OpenAISpeech struct {
	client     speechCreator
	model      openai.SpeechModel
	voice      openai.SpeechVoice
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// OpenAIOption configures an OpenAISpeech.
type OpenAIOption func(*OpenAISpeech)

// WithOpenAIModel sets the speech model. Empty keeps DefaultOpenAIModel.
func WithOpenAIModel(model string) OpenAIOption {
	return func(s *OpenAISpeech) {
		if model != "" {
			s.model = openai.SpeechModel(model)
		}
	}
}

// WithVoice sets the voice. Empty keeps DefaultOpenAIVoice.
func WithVoice(voice string) OpenAIOption {
	return func(s *OpenAISpeech) {
		if voice != "" {
			s.voice = openai.SpeechVoice(voice)
		}
	}
}

// WithOpenAIRetryDelays sets the base and max delays for exponential backoff.
func WithOpenAIRetryDelays(base, max time.Duration) OpenAIOption {
	return func(s *OpenAISpeech) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// WithOpenAILogger sets the logger for retry warnings.
func WithOpenAILogger(l *slog.Logger) OpenAIOption {
	return func(s *OpenAISpeech) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewOpenAISpeech creates an OpenAISpeech around client.
func NewOpenAISpeech(client *openai.Client, opts ...OpenAIOption) *OpenAISpeech {
	return newOpenAISpeech(client, opts...)
}

func newOpenAISpeech(client speechCreator, opts ...OpenAIOption) *OpenAISpeech {
	s := &OpenAISpeech{
		client:     client,
		model:      DefaultOpenAIModel,
		voice:      DefaultOpenAIVoice,
		maxRetries: defaultOpenAIRetries,
		baseDelay:  defaultOpenAIBaseDelay,
		maxDelay:   defaultOpenAIMaxDelay,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize implements Synthesizer.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text string, _ lang.Code, outPath string) error {
	pieces := Split(text, OpenAIPieceLimit)
	if len(pieces) == 0 {
		return ErrEmptyText
	}

	var audio bytes.Buffer
	for i, piece := range pieces {
		data, err := s.speak(ctx, piece)
		if err != nil {
			return fmt.Errorf("piece %d/%d: %w", i+1, len(pieces), err)
		}
		audio.Write(data)
	}
	return writeAudio(outPath, audio.Bytes())
}

func (s *OpenAISpeech) speak(ctx context.Context, piece string) ([]byte, error) {
	req := openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          piece,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.logger.Warn("speech request failed, retrying",
				"provider", ProviderOpenAI, "model", string(s.model),
				"attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (_ []byte, err error) {
		resp, err := s.client.CreateSpeech(ctx, req)
		if err != nil {
			return nil, apierr.Classify(err)
		}
		defer func() {
			if closeErr := resp.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close response body: %w", closeErr)
			}
		}()
		data, err := io.ReadAll(io.LimitReader(resp, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read audio: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrEmptyAudio
		}
		return data, nil
	}, apierr.IsRetryable)
}
