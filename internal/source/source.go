// Package source reads the raw dataset payload from a local path, a file://
// URL or an http(s) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format identifies how a payload should be decoded.
type Format int

const (
	FormatJSON Format = iota
	FormatCSV
)

func (f Format) String() string {
	if f == FormatCSV {
		return "csv"
	}
	return "json"
}

// maxBodyBytes caps a remote payload so a misbehaving server can not
// exhaust memory.
const maxBodyBytes = 64 << 20

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Fetcher retrieves dataset payloads.
type Fetcher struct {
	httpClient *http.Client
	retries    int
	baseDelay  time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// WithRetries sets how many times a 429 or 5xx response is retried.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; later delays double.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// New creates a Fetcher with a tuned transport, a 10s timeout and 3 retries.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: newHTTPClient(10 * time.Second),
		retries:    3,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch returns the raw payload at location together with its detected format.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, Format, error) {
	if IsRemote(location) {
		return f.fetchHTTP(ctx, location)
	}

	path := location
	if strings.HasPrefix(strings.ToLower(location), "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, FormatJSON, fmt.Errorf("parsing file URL: %w", err)
		}
		path = u.Path
	}
	path = expandTilde(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatJSON, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, formatFromPath(path), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, Format, error) {
	var lastErr *StatusError
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(f.backoffDelay(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, FormatJSON, ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, FormatJSON, err
		}
		req.Header.Set("Accept", "application/json, text/csv;q=0.9")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, FormatJSON, err
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			return nil, FormatJSON, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, formatFromResponse(resp, location), nil
		}

		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(bodyStr)}

		if resp.StatusCode == http.StatusTooManyRequests {
			statusErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = statusErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = statusErr
			continue
		}
		return nil, FormatJSON, statusErr
	}
	return nil, FormatJSON, lastErr
}

// backoffDelay honors Retry-After on 429s, otherwise doubles from baseDelay.
func (f *Fetcher) backoffDelay(attempt int, lastErr *StatusError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return f.baseDelay * time.Duration(1<<(attempt-1))
}

func formatFromResponse(resp *http.Response, location string) Format {
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "csv") {
		return FormatCSV
	}
	if strings.Contains(ct, "json") {
		return FormatJSON
	}
	if u, err := url.Parse(location); err == nil {
		return formatFromPath(u.Path)
	}
	return FormatJSON
}

func formatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
