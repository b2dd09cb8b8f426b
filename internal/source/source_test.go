package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func fastFetcher(opts ...Option) *Fetcher {
	return New(append([]Option{WithBaseDelay(time.Millisecond)}, opts...)...)
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "events.json")
	csvPath := filepath.Join(dir, "events.CSV")
	if err := os.WriteFile(jsonPath, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, []byte("date\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := New()

	data, format, err := f.Fetch(context.Background(), jsonPath)
	if err != nil {
		t.Fatalf("Fetch json: %v", err)
	}
	if string(data) != "[]" || format != FormatJSON {
		t.Errorf("json: got %q, %v", data, format)
	}

	_, format, err = f.Fetch(context.Background(), "file://"+csvPath)
	if err != nil {
		t.Fatalf("Fetch file URL: %v", err)
	}
	if format != FormatCSV {
		t.Errorf("csv extension should detect FormatCSV, got %v", format)
	}
}

func TestFetch_MissingFile(t *testing.T) {
	_, _, err := New().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain, got %v", err)
	}
}

func TestFetch_HTTPSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Summary":"x"}]`))
	}))
	defer srv.Close()

	data, format, err := fastFetcher().Fetch(context.Background(), srv.URL+"/data/display_subset_v2.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != FormatJSON || string(data) != `[{"Summary":"x"}]` {
		t.Errorf("got %q, %v", data, format)
	}
}

func TestFetch_HTTPContentTypeCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte("date,summary\n"))
	}))
	defer srv.Close()

	_, format, err := fastFetcher().Fetch(context.Background(), srv.URL+"/export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != FormatCSV {
		t.Errorf("format = %v, want csv", format)
	}
}

func TestFetch_HTTPNotFoundNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := fastFetcher().Fetch(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", statusErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls.Load())
	}
}

func TestFetch_HTTPRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, _, err := fastFetcher(WithRetries(3)).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch_HTTPRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := fastFetcher(WithRetries(2)).Fetch(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls.Load())
	}
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(WithBaseDelay(time.Hour))
	_, _, err := f.Fetch(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBackoffDelay_RetryAfter(t *testing.T) {
	f := New(WithBaseDelay(time.Second))
	got := f.backoffDelay(1, &StatusError{StatusCode: http.StatusTooManyRequests, retryAfter: "7"})
	if got != 7*time.Second {
		t.Errorf("Retry-After delay = %v, want 7s", got)
	}
	if got := f.backoffDelay(3, nil); got != 4*time.Second {
		t.Errorf("attempt 3 delay = %v, want 4s", got)
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("HTTPS://example.com/x.json") {
		t.Error("https URL should be remote")
	}
	if IsRemote("data/display_subset_v2.json") || IsRemote("file:///tmp/x.json") {
		t.Error("paths and file URLs are not remote")
	}
}
