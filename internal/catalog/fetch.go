package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "lwgate-catalog/1.0"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds a single fetch. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header for HTTP sources.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client.HTTPClient = c
		}
	}
}

// Fetcher reads catalog documents from HTTP(S) URLs, file:// URLs or local paths.
type Fetcher struct {
	client    *retryablehttp.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. Requests are never retried.
func NewFetcher(opts ...Option) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	f := &Fetcher{
		client:    client,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads the catalog at source. Every failure is logged and folded into
// an empty catalog.
func (f *Fetcher) Fetch(ctx context.Context, source string) []Item {
	items, err := f.FetchErr(ctx, source)
	if err != nil {
		f.logger.Warn("catalog unavailable, rendering empty", "source", source, "error", err)
		return []Item{}
	}
	return items
}

// FetchErr loads the catalog at source and reports why it failed.
func (f *Fetcher) FetchErr(ctx context.Context, source string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.read(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("catalog body is empty")
	}
	return Decode(body)
}

func (f *Fetcher) read(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog source: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.readHTTP(ctx, source)
	case "file":
		return readFile(ctx, u.Path)
	case "":
		return readFile(ctx, source)
	default:
		return nil, fmt.Errorf("unsupported catalog scheme %q", u.Scheme)
	}
}

func (f *Fetcher) readHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return data, nil
}
