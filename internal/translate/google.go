package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/lang"
)

// Google Cloud Translation configuration.
const (
	DefaultGoogleBaseURL = "https://translation.googleapis.com/language/translate/v2"

	defaultGoogleMaxRetries  = 3
	defaultGoogleBaseDelay   = 1 * time.Second
	defaultGoogleMaxDelay    = 30 * time.Second
	defaultGoogleHTTPTimeout = 2 * time.Minute

	// Response size limit to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoogleTranslator calls the Cloud Translation v2 REST API with an API key.
type GoogleTranslator struct {
	apiKey     string
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient httpDoer
	logger     *slog.Logger
}

// GoogleOption configures a GoogleTranslator.
type GoogleOption func(*GoogleTranslator)

// WithGoogleBaseURL sets a custom endpoint (for testing or proxies).
func WithGoogleBaseURL(u string) GoogleOption {
	return func(g *GoogleTranslator) {
		if u != "" {
			g.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(c httpDoer) GoogleOption {
	return func(g *GoogleTranslator) { g.httpClient = c }
}

// WithGoogleMaxRetries sets the maximum number of retry attempts.
func WithGoogleMaxRetries(n int) GoogleOption {
	return func(g *GoogleTranslator) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithGoogleRetryDelays sets the base and max delays for exponential backoff.
func WithGoogleRetryDelays(base, max time.Duration) GoogleOption {
	return func(g *GoogleTranslator) {
		if base > 0 {
			g.baseDelay = base
		}
		if max > 0 {
			g.maxDelay = max
		}
	}
}

// WithGoogleLogger sets the logger for retry warnings.
func WithGoogleLogger(l *slog.Logger) GoogleOption {
	return func(g *GoogleTranslator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGoogleTranslator creates a GoogleTranslator. Without an apiKey every
// Translate call fails with ErrAPIKeyMissing.
func NewGoogleTranslator(apiKey string, opts ...GoogleOption) *GoogleTranslator {
	g := &GoogleTranslator{
		apiKey:     apiKey,
		baseURL:    DefaultGoogleBaseURL,
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

// Translate implements Translator. Blank input is returned without a request.
func (g *GoogleTranslator) Translate(ctx context.Context, text string, source, target lang.Code) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: Google Cloud Translation needs an API key", ErrAPIKeyMissing)
	}

	form := url.Values{
		"key":    {g.apiKey},
		"q":      {text},
		"target": {target.Base()},
		"format": {"text"},
	}
	if source != "" {
		form.Set("source", source.Base())
	}

	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			g.logger.Warn("translation request failed, retrying",
				"provider", ProviderGoogle, "attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		return g.callAPI(ctx, form)
	}, apierr.IsRetryable)
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleTranslator) callAPI(ctx context.Context, form url.Values) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", apierr.Classify(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp googleErrorResponse
		msg := string(body)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return "", apierr.FromStatus(resp.StatusCode, msg)
	}

	var result googleResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Data.Translations) == 0 || strings.TrimSpace(result.Data.Translations[0].TranslatedText) == "" {
		return "", ErrEmptyResponse
	}
	return result.Data.Translations[0].TranslatedText, nil
}
