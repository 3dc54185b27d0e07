package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/config"
	"github.com/insee-t/tt/internal/ffmpeg"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/tempo"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(path string) (*config.Config, string, bool, error)

	mu        sync.Mutex
	loadCalls []string
}

func (m *mockConfigLoader) Load(path string) (*config.Config, string, bool, error) {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, path)
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	cfg := config.Default()
	return &cfg, "/home/test/.config/tt/config.toml", false, nil
}

func (m *mockConfigLoader) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context, paths config.FFmpeg) (ffmpeg.Binaries, error)

	mu                sync.Mutex
	resolveCalls      []config.FFmpeg
	checkVersionCalls []string
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context, paths config.FFmpeg) (ffmpeg.Binaries, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, paths)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, paths)
	}
	return ffmpeg.Binaries{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"}, nil
}

func (m *mockFFmpegResolver) CheckVersion(_ context.Context, ffmpegPath string, _ *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkVersionCalls = append(m.checkVersionCalls, ffmpegPath)
}

func (m *mockFFmpegResolver) ResolveCalls() []config.FFmpeg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.FFmpeg(nil), m.resolveCalls...)
}

// ---------------------------------------------------------------------------
// Mock MediaFactory + Media
// ---------------------------------------------------------------------------

type mockMediaFactory struct {
	media *mockMedia

	mu    sync.Mutex
	calls []ffmpeg.Binaries
}

func (m *mockMediaFactory) NewMedia(bins ffmpeg.Binaries) Media {
	m.mu.Lock()
	m.calls = append(m.calls, bins)
	m.mu.Unlock()

	if m.media == nil {
		m.media = newMockMedia()
	}
	return m.media
}

func (m *mockMediaFactory) Calls() []ffmpeg.Binaries {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ffmpeg.Binaries(nil), m.calls...)
}

// mockMedia simulates ffmpeg by writing small placeholder files. Durations
// are keyed by base name; the speech track is 12s until a rate filter runs.
type mockMedia struct {
	mu        sync.Mutex
	durations map[string]float64
	muxErr    error
	cuts      int
	muxed     string
}

func newMockMedia() *mockMedia {
	return &mockMedia{durations: map[string]float64{
		"input.mp4":  10,
		"audio.wav":  10,
		"speech.mp3": 12,
	}}
}

func (m *mockMedia) ExtractAudio(_ context.Context, _, out string) error {
	return os.WriteFile(out, []byte("wav"), 0o644)
}

func (m *mockMedia) Duration(_ context.Context, path string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return 0, ffmpeg.ErrProbeFailed
}

func (m *mockMedia) Mux(_ context.Context, _, _, out string) error {
	m.mu.Lock()
	m.muxed = out
	err := m.muxErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte("video"), 0o644)
}

func (m *mockMedia) Cut(_ context.Context, _, out string, _, _ time.Duration) error {
	m.mu.Lock()
	m.cuts++
	m.mu.Unlock()
	return os.WriteFile(out, []byte("chunk"), 0o644)
}

func (m *mockMedia) Trim(_ context.Context, _, out string, _ float64) error {
	return os.WriteFile(out, []byte("trimmed"), 0o644)
}

func (m *mockMedia) RateFilters() []align.RateFilter {
	return []align.RateFilter{mockRateFilter{media: m}}
}

func (m *mockMedia) Muxed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muxed
}

type mockRateFilter struct {
	media *mockMedia
}

func (mockRateFilter) Name() string { return "mock-tempo" }

func (f mockRateFilter) Apply(_ context.Context, in, out string, plan tempo.Plan) error {
	f.media.mu.Lock()
	name := filepath.Base(in)
	f.media.durations[name] /= plan.Factor
	f.media.mu.Unlock()
	return os.WriteFile(out, []byte("faster"), 0o644)
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type transcriberCall struct {
	Cfg      config.Transcription
	Language lang.Code
	APIKey   string
}

type mockTranscriberFactory struct {
	text string
	err  error

	mu    sync.Mutex
	calls []transcriberCall
}

func (m *mockTranscriberFactory) NewTranscriber(cfg config.Transcription, language lang.Code, apiKey string, _ *slog.Logger) transcribe.Transcriber {
	m.mu.Lock()
	m.calls = append(m.calls, transcriberCall{Cfg: cfg, Language: language, APIKey: apiKey})
	m.mu.Unlock()
	return mockTranscriber{text: m.text, err: m.err}
}

func (m *mockTranscriberFactory) Calls() []transcriberCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcriberCall(nil), m.calls...)
}

type mockTranscriber struct {
	text string
	err  error
}

func (m mockTranscriber) Transcribe(context.Context, string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.text == "" {
		return "大家好", nil
	}
	return m.text, nil
}

// ---------------------------------------------------------------------------
// Mock TranslatorFactory + Translator
// ---------------------------------------------------------------------------

type mockTranslatorFactory struct {
	// out maps target language to translation.
	out map[lang.Code]string

	mu    sync.Mutex
	calls []config.Translation
}

func (m *mockTranslatorFactory) NewTranslator(cfg config.Translation, _ config.Credentials, _ *slog.Logger) translate.Translator {
	m.mu.Lock()
	m.calls = append(m.calls, cfg)
	m.mu.Unlock()

	out := m.out
	if out == nil {
		out = map[lang.Code]string{lang.English: "Hello everyone", lang.Thai: "สวัสดีทุกคน"}
	}
	return mockTranslator{out: out}
}

func (m *mockTranslatorFactory) Calls() []config.Translation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.Translation(nil), m.calls...)
}

type mockTranslator struct {
	out map[lang.Code]string
}

func (m mockTranslator) Translate(_ context.Context, _ string, _, target lang.Code) (string, error) {
	return m.out[target], nil
}

// ---------------------------------------------------------------------------
// Mock SynthesizerFactory + Synthesizer
// ---------------------------------------------------------------------------

type mockSynthesizerFactory struct {
	err error

	mu    sync.Mutex
	calls []config.Synthesis
	texts []string
}

func (m *mockSynthesizerFactory) NewSynthesizer(cfg config.Synthesis, _ config.Credentials, _ *slog.Logger) synth.Synthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, cfg)
	return m
}

func (m *mockSynthesizerFactory) Synthesize(_ context.Context, text string, _ lang.Code, outPath string) error {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

func (m *mockSynthesizerFactory) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// ---------------------------------------------------------------------------
// Mock ChatClientFactory + ChatClient
// ---------------------------------------------------------------------------

type chatClientCall struct {
	BaseURL string
	APIKey  string
}

type mockChatClientFactory struct {
	client *mockChatClient

	mu    sync.Mutex
	calls []chatClientCall
}

func (m *mockChatClientFactory) NewChatClient(baseURL, apiKey string) ChatClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, chatClientCall{BaseURL: baseURL, APIKey: apiKey})
	if m.client == nil {
		m.client = &mockChatClient{}
	}
	return m.client
}

func (m *mockChatClientFactory) Calls() []chatClientCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chatClientCall(nil), m.calls...)
}

type mockChatClient struct {
	CreateFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return chatResponse("สวัสดีชาวโลก"), nil
}

func (m *mockChatClient) Requests() []openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), m.requests...)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ FFmpegResolver     = (*mockFFmpegResolver)(nil)
	_ MediaFactory       = (*mockMediaFactory)(nil)
	_ Media              = (*mockMedia)(nil)
	_ TranscriberFactory = (*mockTranscriberFactory)(nil)
	_ TranslatorFactory  = (*mockTranslatorFactory)(nil)
	_ SynthesizerFactory = (*mockSynthesizerFactory)(nil)
	_ ChatClientFactory  = (*mockChatClientFactory)(nil)
)

// ---------------------------------------------------------------------------
// Mock ExitHooks
// ---------------------------------------------------------------------------

type mockExitHooks struct {
	mu         sync.Mutex
	registered int
	released   int
}

func (m *mockExitHooks) OnForceExit(func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released++
	}
}

func (m *mockExitHooks) Counts() (registered, released int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered, m.released
}
