// Package source retrieves raw transcript payloads from the remote content
// host that serves Mux-generated transcript JSON files.
//
// Retrieval is a plain HTTP GET with no retry policy: a failed fetch is
// reported to the caller, which degrades to an empty caption result. Timeout
// behaviour is whatever the configured [http.Client] imposes — no additional
// deadline is layered on top.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxPayloadBytes bounds how much transcript JSON is read from the source.
// The largest observed lesson transcript is under 1 MiB.
const maxPayloadBytes = 16 << 20

// defaultTimeout applies when no custom HTTP client is supplied.
const defaultTimeout = 30 * time.Second

// Fetcher retrieves a raw transcript payload addressed by a source-file
// identifier (e.g. "2.json"). Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, sourceFile string) ([]byte, error)
}

// Option is a functional option for configuring the HTTP fetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient replaces the default HTTP client. Useful for tests and for
// callers that need custom transport settings.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = c
	}
}

// WithTimeout sets the request timeout on the default HTTP client. Ignored
// when [WithHTTPClient] is also given.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// HTTPFetcher implements [Fetcher] against an HTTP content host.
type HTTPFetcher struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// New creates an [HTTPFetcher] serving transcript files relative to baseURL.
// baseURL must not be empty.
func New(baseURL string, opts ...Option) (*HTTPFetcher, error) {
	if baseURL == "" {
		return nil, errors.New("source: baseURL must not be empty")
	}
	f := &HTTPFetcher{
		baseURL: baseURL,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(f)
	}
	if f.httpClient == nil {
		f.httpClient = &http.Client{Timeout: f.timeout}
	}
	return f, nil
}

// Fetch implements [Fetcher]. It returns the raw payload bytes verbatim; the
// caller decodes and validates them at the caption boundary.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceFile string) ([]byte, error) {
	if sourceFile == "" {
		return nil, errors.New("source: sourceFile must not be empty")
	}

	u, err := url.JoinPath(f.baseURL, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("source: build URL for %q: %w", sourceFile, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("source: fetch %q: %w", sourceFile, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetch %q: %w", sourceFile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: fetch %q: unexpected status %d", sourceFile, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("source: read %q: %w", sourceFile, err)
	}
	return data, nil
}
