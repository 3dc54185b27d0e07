// Package transcribe turns speech audio into text through an
// OpenAI-compatible /audio/transcriptions endpoint.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/audio"
	"github.com/insee-t/tt/internal/lang"
)

// DefaultModel is accepted by both the OpenAI API and self-hosted whisper servers.
const DefaultModel = openai.Whisper1

// Parallelism configuration.
const (
	// DefaultParallel is the number of chunks uploaded at once.
	DefaultParallel = 3

	// MaxRecommendedParallel is the recommended upper limit for concurrent API requests.
	// Higher values may trigger rate limiting.
	MaxRecommendedParallel = 10
)

// Default retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Transcriber transcribes one audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ Transcriber      = (*ChunkedTranscriber)(nil)
	_ Transcriber      = Unavailable{}
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes a single file, retrying transient failures
// with exponential backoff.
type OpenAITranscriber struct {
	client     audioTranscriber
	model      string
	language   lang.Code
	prompt     string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model. Empty keeps DefaultModel.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLanguage sets the spoken language hint. Empty means auto-detect.
func WithLanguage(code lang.Code) TranscriberOption {
	return func(t *OpenAITranscriber) { t.language = code }
}

// WithPrompt provides context to improve accuracy (vocabulary, names).
func WithPrompt(prompt string) TranscriberOption {
	return func(t *OpenAITranscriber) { t.prompt = prompt }
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithLogger sets the logger for retry warnings.
func WithLogger(l *slog.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewOpenAITranscriber creates an OpenAITranscriber around client.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

func newOpenAITranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		model:      DefaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe converts an audio file to text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   t.prompt,
	}
	if t.language != "" {
		req.Language = t.language.Base()
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			t.logger.Warn("transcription failed, retrying",
				"file", filepath.Base(audioPath), "attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		return strings.TrimSpace(resp.Text), nil
	}, apierr.IsRetryable)
}

// Unavailable fails every call with Err. It stands in for an engine that
// cannot be reached, such as a hosted one without credentials.
type Unavailable struct {
	Err error
}

// Transcribe implements Transcriber.
func (u Unavailable) Transcribe(context.Context, string) (string, error) {
	return "", u.Err
}

// ---------------------------------------------------------------------------
// Chunked transcription
// ---------------------------------------------------------------------------

// Chunker splits a file into upload-sized chunks.
type Chunker interface {
	Chunk(ctx context.Context, audioPath string) ([]audio.Chunk, error)
}

// ChunkedTranscriber splits long audio, transcribes chunks in parallel and
// joins the results in order.
type ChunkedTranscriber struct {
	chunker     Chunker
	transcriber Transcriber
	maxParallel int
}

// NewChunkedTranscriber creates a ChunkedTranscriber.
// maxParallel < 1 is treated as 1.
func NewChunkedTranscriber(chunker Chunker, t Transcriber, maxParallel int) *ChunkedTranscriber {
	return &ChunkedTranscriber{chunker: chunker, transcriber: t, maxParallel: max(maxParallel, 1)}
}

// Transcribe implements Transcriber. Chunk files are removed before returning.
func (c *ChunkedTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if u, ok := c.transcriber.(Unavailable); ok {
		return "", u.Err
	}
	chunks, err := c.chunker.Chunk(ctx, audioPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = audio.Cleanup(chunks) }()

	texts, err := TranscribeAll(ctx, chunks, c.transcriber, c.maxParallel)
	if err != nil {
		return "", err
	}

	text := Join(texts)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// TranscribeAll transcribes chunks in parallel.
// Results are returned in the same order as the input chunks.
// If any chunk fails, the entire operation is aborted and the error is returned.
func TranscribeAll(ctx context.Context, chunks []audio.Chunk, t Transcriber, maxParallel int) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	results := make([]string, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(maxParallel, 1))

	for i, chunk := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := t.Transcribe(ctx, chunk.Path)
			if err != nil {
				return fmt.Errorf("chunk %d (%s): %w", chunk.Index, filepath.Base(chunk.Path), err)
			}
			results[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Join concatenates chunk transcripts, skipping empty ones.
// Chinese transcripts carry no inter-word spaces, so chunks are joined with a
// single space only when neither side ends in CJK punctuation or ideographs.
// Overlapping chunks transcribe the same speech twice: the longest prefix of a
// chunk that repeats the end of the text so far is dropped.
func Join(texts []string) string {
	var b strings.Builder
	for _, s := range texts {
		s = strings.TrimSpace(s)
		if b.Len() > 0 {
			s = strings.TrimSpace(s[sharedBoundary(b.String(), s):])
		}
		if s == "" {
			continue
		}
		if b.Len() > 0 && needsSpace(b.String(), s) {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}

// Bounds on the text repeated across a chunk boundary, in runes. Shorter
// matches are too likely to be real repetition ("好，好").
const (
	minSharedRunes = 4
	maxSharedRunes = 200
)

// sharedBoundary returns the byte length of the longest prefix of next that
// repeats the end of prev, or 0 when no match reaches minSharedRunes.
func sharedBoundary(prev, next string) int {
	prev = strings.TrimRightFunc(prev, unicode.IsSpace)
	best, runes := 0, 0
	for i := range next {
		if runes > maxSharedRunes {
			return best
		}
		if runes >= minSharedRunes && repeats(prev, next, i) {
			best = i
		}
		runes++
	}
	if runes >= minSharedRunes && repeats(prev, next, len(next)) {
		best = len(next)
	}
	return best
}

// repeats reports whether next[:end] ends prev without cutting a word on
// either side of the match.
func repeats(prev, next string, end int) bool {
	shared := strings.TrimRightFunc(next[:end], unicode.IsSpace)
	if shared == "" || !strings.HasSuffix(prev, shared) {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(prev[:len(prev)-len(shared)])
	first, _ := utf8.DecodeRuneInString(shared)
	last, _ := utf8.DecodeLastRuneInString(next[:end])
	after, _ := utf8.DecodeRuneInString(next[end:])
	return !(isWordRune(before) && isWordRune(first)) && !(isWordRune(last) && isWordRune(after))
}

// isWordRune reports whether r is a letter or digit of a space-separated script.
func isWordRune(r rune) bool {
	return r < cjkStart && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// cjkStart is the first code point of the CJK radicals block; everything from
// here up is written without spaces in the languages we transcribe.
const cjkStart = 0x2E80

func needsSpace(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	return last < cjkStart && first < cjkStart
}
