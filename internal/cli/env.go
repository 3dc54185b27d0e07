package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/config"
	"github.com/insee-t/tt/internal/ffmpeg"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/pipeline"
	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader       ConfigLoader
	FFmpegResolver     FFmpegResolver
	MediaFactory       MediaFactory
	TranscriberFactory TranscriberFactory
	TranslatorFactory  TranslatorFactory
	SynthesizerFactory SynthesizerFactory
	ChatClientFactory  ChatClientFactory

	// ExitHooks, when set, removes run workspaces on a forced exit.
	ExitHooks pipeline.ExitHooks
}

// ConfigLoader loads the configuration file.
type ConfigLoader interface {
	Load(path string) (cfg *config.Config, resolved string, exists bool, err error)
}

// FFmpegResolver finds the ffmpeg and ffprobe binaries.
type FFmpegResolver interface {
	Resolve(ctx context.Context, paths config.FFmpeg) (ffmpeg.Binaries, error)
	CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger)
}

// Media is the ffmpeg surface a dubbing run needs: the pipeline's own media
// operations plus chunk cutting, truncation and the rate filters.
type Media interface {
	pipeline.MediaTool
	Cut(ctx context.Context, in, out string, start, end time.Duration) error
	Trim(ctx context.Context, in, out string, seconds float64) error
	RateFilters() []align.RateFilter
}

// MediaFactory creates the media tool for resolved binaries.
type MediaFactory interface {
	NewMedia(bins ffmpeg.Binaries) Media
}

// TranscriberFactory creates single-file transcribers.
type TranscriberFactory interface {
	NewTranscriber(cfg config.Transcription, language lang.Code, apiKey string, logger *slog.Logger) transcribe.Transcriber
}

// TranslatorFactory creates the configured translation provider.
type TranslatorFactory interface {
	NewTranslator(cfg config.Translation, creds config.Credentials, logger *slog.Logger) translate.Translator
}

// SynthesizerFactory creates the configured speech provider with its alternate.
type SynthesizerFactory interface {
	NewSynthesizer(cfg config.Synthesis, creds config.Credentials, logger *slog.Logger) synth.Synthesizer
}

// ChatClient sends chat completion requests.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClientFactory creates OpenAI-compatible chat clients.
type ChatClientFactory interface {
	NewChatClient(baseURL, apiKey string) ChatClient
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithMediaFactory sets the media factory.
func WithMediaFactory(f MediaFactory) EnvOption {
	return func(e *Env) {
		e.MediaFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithTranslatorFactory sets the translator factory.
func WithTranslatorFactory(f TranslatorFactory) EnvOption {
	return func(e *Env) {
		e.TranslatorFactory = f
	}
}

// WithSynthesizerFactory sets the synthesizer factory.
func WithSynthesizerFactory(f SynthesizerFactory) EnvOption {
	return func(e *Env) {
		e.SynthesizerFactory = f
	}
}

// WithChatClientFactory sets the chat client factory.
func WithChatClientFactory(f ChatClientFactory) EnvOption {
	return func(e *Env) {
		e.ChatClientFactory = f
	}
}

// WithExitHooks sets the forced-exit cleanup registry.
func WithExitHooks(h pipeline.ExitHooks) EnvOption {
	return func(e *Env) {
		e.ExitHooks = h
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		ConfigLoader:       &defaultConfigLoader{},
		FFmpegResolver:     &defaultFFmpegResolver{},
		MediaFactory:       &defaultMediaFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		TranslatorFactory:  &defaultTranslatorFactory{},
		SynthesizerFactory: &defaultSynthesizerFactory{},
		ChatClientFactory:  &defaultChatClientFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (*config.Config, string, bool, error) {
	return config.Load(path)
}

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, paths config.FFmpeg) (ffmpeg.Binaries, error) {
	return ffmpeg.NewResolver(ffmpeg.WithConfiguredPaths(paths.FFmpegPath, paths.FFprobePath)).Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, logger *slog.Logger) {
	ffmpeg.NewVersionChecker(ffmpeg.WithVersionLogger(logger)).Check(ctx, ffmpegPath)
}

// ffmpegMedia adds the rate filter list to ffmpeg.Tool.
type ffmpegMedia struct {
	*ffmpeg.Tool
}

// RateFilters returns atempo first; rubberband is the fallback.
func (m ffmpegMedia) RateFilters() []align.RateFilter {
	return []align.RateFilter{m.Atempo(), m.Rubberband()}
}

// defaultMediaFactory implements MediaFactory using ffmpeg.Tool.
type defaultMediaFactory struct{}

func (defaultMediaFactory) NewMedia(bins ffmpeg.Binaries) Media {
	return ffmpegMedia{Tool: ffmpeg.NewTool(bins)}
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(cfg config.Transcription, language lang.Code, apiKey string, logger *slog.Logger) transcribe.Transcriber {
	// Self-hosted servers usually accept anonymous requests.
	if apiKey == "" && cfg.BaseURL == "" {
		return transcribe.Unavailable{Err: fmt.Errorf("%w: %s is not set", transcribe.ErrAPIKeyMissing, config.EnvOpenAIKey)}
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return transcribe.NewOpenAITranscriber(openai.NewClientWithConfig(clientCfg),
		transcribe.WithModel(cfg.Model),
		transcribe.WithLanguage(language),
		transcribe.WithPrompt(cfg.Prompt),
		transcribe.WithLogger(logger),
	)
}

// defaultTranslatorFactory implements TranslatorFactory.
type defaultTranslatorFactory struct{}

func (defaultTranslatorFactory) NewTranslator(cfg config.Translation, creds config.Credentials, logger *slog.Logger) translate.Translator {
	if cfg.Provider == translate.ProviderLLM {
		return translate.NewLLMTranslator(cfg.BaseURL, creds.TyphoonKey,
			translate.WithLLMModel(cfg.Model),
			translate.WithLLMLogger(logger),
		)
	}
	return translate.NewGoogleTranslator(creds.GoogleKey, translate.WithGoogleLogger(logger))
}

// defaultSynthesizerFactory implements SynthesizerFactory. The alternate is
// slow speech for google and the cheaper model for openai.
type defaultSynthesizerFactory struct{}

func (defaultSynthesizerFactory) NewSynthesizer(cfg config.Synthesis, creds config.Credentials, logger *slog.Logger) synth.Synthesizer {
	if cfg.Provider == synth.ProviderOpenAI {
		client := openai.NewClient(creds.OpenAIKey)
		primary := synth.NewOpenAISpeech(client,
			synth.WithOpenAIModel(cfg.Model), synth.WithVoice(cfg.Voice), synth.WithOpenAILogger(logger))
		alternate := synth.NewOpenAISpeech(client,
			synth.WithOpenAIModel(cfg.AlternateModel), synth.WithVoice(cfg.Voice), synth.WithOpenAILogger(logger))
		return synth.WithAlternate(primary, alternate, logger)
	}
	primary := synth.NewGoogleTTS(synth.WithSpeed(synth.SpeedNormal), synth.WithGoogleLogger(logger))
	alternate := synth.NewGoogleTTS(synth.WithSpeed(synth.SpeedSlow), synth.WithGoogleLogger(logger))
	return synth.WithAlternate(primary, alternate, logger)
}

// defaultChatClientFactory implements ChatClientFactory using go-openai.
type defaultChatClientFactory struct{}

func (defaultChatClientFactory) NewChatClient(baseURL, apiKey string) ChatClient {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ MediaFactory       = (*defaultMediaFactory)(nil)
	_ Media              = ffmpegMedia{}
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ TranslatorFactory  = (*defaultTranslatorFactory)(nil)
	_ SynthesizerFactory = (*defaultSynthesizerFactory)(nil)
	_ ChatClientFactory  = (*defaultChatClientFactory)(nil)
	_ ChatClient         = (*openai.Client)(nil)
)
