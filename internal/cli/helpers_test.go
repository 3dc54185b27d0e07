package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/insee-t/tt/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader   *mockConfigLoader
	ffmpegResolver *mockFFmpegResolver
	media          *mockMediaFactory
	transcriber    *mockTranscriberFactory
	translator     *mockTranslatorFactory
	synthesizer    *mockSynthesizerFactory
	chat           *mockChatClientFactory
	exitHooks      *mockExitHooks
}

func newTestMocks() *testMocks {
	return &testMocks{
		configLoader:   &mockConfigLoader{},
		ffmpegResolver: &mockFFmpegResolver{},
		media:          &mockMediaFactory{media: newMockMedia()},
		transcriber:    &mockTranscriberFactory{},
		translator:     &mockTranslatorFactory{},
		synthesizer:    &mockSynthesizerFactory{},
		chat:           &mockChatClientFactory{},
		exitHooks:      &mockExitHooks{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

type testEnvOptions struct {
	getenv func(string) string
	mocks  *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

func withTestMocks(m *testMocks) testEnvOption {
	return func(o *testEnvOptions) { o.mocks = m }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env, its stdout and stderr buffers, and the mocks.
func testEnv(opts ...testEnvOption) (*Env, *syncBuffer, *syncBuffer, *testMocks) {
	options := &testEnvOptions{
		getenv: defaultTestEnv,
		mocks:  newTestMocks(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	m := options.mocks
	env := &Env{
		Stdout:             stdout,
		Stderr:             stderr,
		Getenv:             options.getenv,
		Now:                fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		ConfigLoader:       m.configLoader,
		FFmpegResolver:     m.ffmpegResolver,
		MediaFactory:       m.media,
		TranscriberFactory: m.transcriber,
		TranslatorFactory:  m.translator,
		SynthesizerFactory: m.synthesizer,
		ChatClientFactory:  m.chat,
		ExitHooks:          m.exitHooks,
	}
	return env, stdout, stderr, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns every API key.
func defaultTestEnv(key string) string {
	switch key {
	case config.EnvOpenAIKey:
		return "test-openai-key"
	case config.EnvGoogleKey:
		return "test-google-key"
	case config.EnvTyphoonKey:
		return "sk-typhoon-0123456789abcdef"
	default:
		return ""
	}
}

// configWith returns a ConfigLoader serving defaults modified by fn.
func configWith(fn func(*config.Config)) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func(string) (*config.Config, string, bool, error) {
			cfg := config.Default()
			fn(&cfg)
			return &cfg, "/home/test/.config/tt/config.toml", true, nil
		},
	}
}

// createTestVideo creates a placeholder input video named input.mp4.
func createTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(path, []byte("fake video content"), 0o644); err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return path
}
