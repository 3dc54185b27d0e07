package synth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/lang"
)

// Google translate_tts configuration.
const (
	DefaultGoogleTTSURL = "https://translate.google.com/translate_tts"

	// GooglePieceLimit is the longest text the endpoint accepts per request, in runes.
	GooglePieceLimit = 100

	// Speech speeds sent as ttsspeed.
	SpeedNormal = 1.0
	SpeedSlow   = 0.3

	defaultGoogleMaxRetries  = 3
	defaultGoogleBaseDelay   = 500 * time.Millisecond
	defaultGoogleMaxDelay    = 10 * time.Second
	defaultGoogleHTTPTimeout = 30 * time.Second

	// Response size limit per piece to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoogleTTS speaks text through Google Translate's public speech endpoint.
// Text is split into short pieces; the MP3 frames of each piece are
// concatenated, which players and ffmpeg read as one stream.
type GoogleTTS struct {
	baseURL    string
	speed      float64
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient httpDoer
	logger     *slog.Logger
}

// GoogleOption configures a GoogleTTS.
type GoogleOption func(*GoogleTTS)

// WithGoogleURL sets a custom endpoint (for testing).
func WithGoogleURL(u string) GoogleOption {
	return func(g *GoogleTTS) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(c httpDoer) GoogleOption {
	return func(g *GoogleTTS) { g.httpClient = c }
}

// WithSpeed sets the speaking speed (SpeedNormal or SpeedSlow).
func WithSpeed(speed float64) GoogleOption {
	return func(g *GoogleTTS) {
		if speed > 0 {
			g.speed = speed
		}
	}
}

// WithGoogleRetryDelays sets the base and max delays for exponential backoff.
func WithGoogleRetryDelays(base, max time.Duration) GoogleOption {
	return func(g *GoogleTTS) {
		if base > 0 {
			g.baseDelay = base
		}
		if max > 0 {
			g.maxDelay = max
		}
	}
}

// WithGoogleMaxRetries sets the maximum number of retry attempts per piece.
func WithGoogleMaxRetries(n int) GoogleOption {
	return func(g *GoogleTTS) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithGoogleLogger sets the logger for retry warnings.
func WithGoogleLogger(l *slog.Logger) GoogleOption {
	return func(g *GoogleTTS) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGoogleTTS creates a GoogleTTS speaking at SpeedNormal.
func NewGoogleTTS(opts ...GoogleOption) *GoogleTTS {
	g := &GoogleTTS{
		baseURL:    DefaultGoogleTTSURL,
		speed:      SpeedNormal,
		maxRetries: defaultGoogleMaxRetries,
		baseDelay:  defaultGoogleBaseDelay,
		maxDelay:   defaultGoogleMaxDelay,
		httpClient: &http.Client{Timeout: defaultGoogleHTTPTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Synthesize implements Synthesizer.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string, language lang.Code, outPath string) error {
	pieces := Split(text, GooglePieceLimit)
	if len(pieces) == 0 {
		return ErrEmptyText
	}

	var audio bytes.Buffer
	for i, piece := range pieces {
		data, err := g.fetchWithRetry(ctx, piece, language, i, len(pieces))
		if err != nil {
			return fmt.Errorf("piece %d/%d: %w", i+1, len(pieces), err)
		}
		audio.Write(data)
	}

	return writeAudio(outPath, audio.Bytes())
}

func (g *GoogleTTS) fetchWithRetry(ctx context.Context, piece string, language lang.Code, idx, total int) ([]byte, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			g.logger.Warn("speech request failed, retrying",
				"provider", ProviderGoogle, "piece", idx+1, "pieces", total,
				"attempt", attempt, "delay", delay, "error", err)
		},
	}
	return apierr.RetryWithBackoff(ctx, cfg, func() ([]byte, error) {
		return g.fetch(ctx, piece, language, idx, total)
	}, apierr.IsRetryable)
}

func (g *GoogleTTS) fetch(ctx context.Context, piece string, language lang.Code, idx, total int) (_ []byte, err error) {
	q := url.Values{
		"ie":       {"UTF-8"},
		"q":        {piece},
		"tl":       {language.Base()},
		"client":   {"tw-ob"},
		"ttsspeed": {strconv.FormatFloat(g.speed, 'f', -1, 64)},
		"idx":      {strconv.Itoa(idx)},
		"total":    {strconv.Itoa(total)},
		"textlen":  {strconv.Itoa(len([]rune(piece)))},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Classify(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apierr.FromStatus(resp.StatusCode, firstLine(body))
	}
	if len(body) == 0 {
		return nil, ErrEmptyAudio
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "audio/") {
		return nil, fmt.Errorf("unexpected content type %q: %w", ct, ErrEmptyAudio)
	}
	return body, nil
}

// firstLine returns a short, single-line excerpt of an error body.
func firstLine(body []byte) string {
	line, _, _ := strings.Cut(string(body), "\n")
	if len(line) > 200 {
		line = line[:200]
	}
	return line
}
