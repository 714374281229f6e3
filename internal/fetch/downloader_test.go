package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pjoubert/linkvigil/internal/domain"
	"github.com/pjoubert/linkvigil/internal/logger"
)

func newTestDownloader(t *testing.T, timeout time.Duration) *Downloader {
	t.Helper()
	store := NewStore(t.TempDir())
	if err := store.EnsureRoot(); err != nil {
		t.Fatalf("failed to prepare store: %v", err)
	}
	return NewDownloader(timeout, "linkvigil-test/1.0", store, logger.NewNop())
}

func accessibleRecord(url string) *domain.BookmarkRecord {
	return &domain.BookmarkRecord{
		ID:  1,
		URL: url,
		Status: &domain.Status{
			Code:       200,
			Accessible: true,
		},
	}
}

func TestDownloadSkipsInaccessibleRecord(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer ts.Close()

	rec := &domain.BookmarkRecord{
		ID:     1,
		URL:    ts.URL,
		Status: &domain.Status{Code: 404, Accessible: false},
	}

	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if got := atomic.LoadInt64(&calls); got != 0 {
		t.Errorf("network calls = %d, want 0 for inaccessible record", got)
	}
	if rec.Content == nil {
		t.Fatal("Content not populated")
	}
	if rec.Content.Downloaded {
		t.Error("Downloaded = true, want false")
	}
	if rec.Content.Error != domain.ErrInaccessibleURL {
		t.Errorf("Error = %q, want %q", rec.Content.Error, domain.ErrInaccessibleURL)
	}
	if rec.Content.DownloadDate.IsZero() {
		t.Error("DownloadDate not set")
	}
}

func TestDownloadSuccess(t *testing.T) {
	body := `{"articles":[]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	rec := accessibleRecord(ts.URL + "/feed")
	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if !rec.Content.Downloaded {
		t.Fatalf("Downloaded = false, want true (error: %q)", rec.Content.Error)
	}
	if rec.Content.Size != int64(len(body)) {
		t.Errorf("Size = %d, want %d", rec.Content.Size, len(body))
	}
	if rec.Content.MIMEType != "application/json; charset=utf-8" {
		t.Errorf("MIMEType = %q, want declared content type", rec.Content.MIMEType)
	}
	if rec.Content.URLUsed != rec.URL {
		t.Errorf("URLUsed = %q, want %q", rec.Content.URLUsed, rec.URL)
	}
	if !strings.HasSuffix(rec.Content.Path, ".json") {
		t.Errorf("Path = %q, want .json extension", rec.Content.Path)
	}

	written, err := os.ReadFile(rec.Content.Path)
	if err != nil {
		t.Fatalf("failed to read stored content: %v", err)
	}
	if string(written) != body {
		t.Errorf("stored content = %q, want %q", written, body)
	}
}

func TestDownloadUsesRedirectTarget(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>moved content</html>"))
	}))
	defer final.Close()

	var originCalls int64
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&originCalls, 1)
	}))
	defer origin.Close()

	rec := &domain.BookmarkRecord{
		ID:  1,
		URL: origin.URL,
		Status: &domain.Status{
			Code:        301,
			Accessible:  true,
			Redirect:    true,
			RedirectURL: final.URL + "/landing",
		},
	}

	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if !rec.Content.Downloaded {
		t.Fatalf("Downloaded = false, want true (error: %q)", rec.Content.Error)
	}
	if rec.Content.URLUsed != final.URL+"/landing" {
		t.Errorf("URLUsed = %q, want redirect target", rec.Content.URLUsed)
	}
	if got := atomic.LoadInt64(&originCalls); got != 0 {
		t.Errorf("origin calls = %d, want 0 (fetch must target the redirect URL)", got)
	}
}

func TestDownloadNon200Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	rec := accessibleRecord(ts.URL)
	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if rec.Content.Downloaded {
		t.Error("Downloaded = true, want false")
	}
	if rec.Content.Error != "status_code: 503" {
		t.Errorf("Error = %q, want \"status_code: 503\"", rec.Content.Error)
	}
	if rec.Content.URLUsed != rec.URL {
		t.Errorf("URLUsed = %q, want attempted URL recorded on failure", rec.Content.URLUsed)
	}
}

func TestDownloadClientError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := ts.URL
	ts.Close()

	rec := accessibleRecord(deadURL)
	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if rec.Content.Downloaded {
		t.Error("Downloaded = true, want false")
	}
	if !strings.HasPrefix(rec.Content.Error, "client_error: ") {
		t.Errorf("Error = %q, want client_error bucket", rec.Content.Error)
	}
}

func TestDownloadTimeout(t *testing.T) {
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-done
	}))
	defer ts.Close()
	defer close(done) // unblock the handler before the server shuts down

	rec := accessibleRecord(ts.URL)
	newTestDownloader(t, 100*time.Millisecond).Download(context.Background(), rec)

	if rec.Content.Error != "timeout" {
		t.Errorf("Error = %q, want \"timeout\"", rec.Content.Error)
	}
}

func TestDownloadDefaultsMissingContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's content sniffing header.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("plain bytes"))
	}))
	defer ts.Close()

	rec := accessibleRecord(ts.URL)
	newTestDownloader(t, 2*time.Second).Download(context.Background(), rec)

	if !rec.Content.Downloaded {
		t.Fatalf("Downloaded = false, want true (error: %q)", rec.Content.Error)
	}
	if rec.Content.MIMEType != "text/html" {
		t.Errorf("MIMEType = %q, want text/html default", rec.Content.MIMEType)
	}
	if !strings.HasSuffix(rec.Content.Path, ".html") {
		t.Errorf("Path = %q, want .html fallback extension", rec.Content.Path)
	}
}
