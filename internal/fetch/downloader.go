package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pjoubert/linkvigil/internal/domain"
	"github.com/pjoubert/linkvigil/internal/logger"
	"github.com/pjoubert/linkvigil/internal/utils"
)

// Downloader retrieves and persists final byte content for bookmarks
// the probe phase marked accessible.
type Downloader struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	store     *Store
	logger    logger.Logger
}

// NewDownloader creates a Downloader persisting into store. Like the
// probe clients, it skips certificate verification: a bookmark judged
// accessible despite a broken certificate must still be fetchable.
func NewDownloader(timeout time.Duration, userAgent string, store *Store, log logger.Logger) *Downloader {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec
		},
	}

	return &Downloader{
		client:    &http.Client{Transport: transport},
		timeout:   timeout,
		userAgent: userAgent,
		store:     store,
		logger:    log,
	}
}

// EnsureStorage prepares the content root. A failure here aborts the
// whole fetch phase, unlike the per-bookmark failures below.
func (d *Downloader) EnsureStorage() error {
	return d.store.EnsureRoot()
}

// ShortCircuit marks a record the fetch phase must not touch the
// network for. No request is made.
func (d *Downloader) ShortCircuit(rec *domain.BookmarkRecord) {
	rec.Content = &domain.Content{
		Downloaded:   false,
		Error:        domain.ErrInaccessibleURL,
		DownloadDate: time.Now(),
	}
}

// Download fetches the record's final content and populates
// rec.Content. Records without an accessible status are
// short-circuited; this guard is part of the contract, not just an
// optimization in the caller.
func (d *Downloader) Download(ctx context.Context, rec *domain.BookmarkRecord) {
	if rec.Status == nil || !rec.Status.Accessible {
		d.ShortCircuit(rec)
		return
	}

	// A probed redirect is followed to its recorded target.
	target := rec.URL
	if rec.Status.Redirect && rec.Status.RedirectURL != "" {
		target = rec.Status.RedirectURL
		d.logger.Debugf("using redirect target for %s: %s", rec.URL, target)
	}

	rec.Content = d.fetch(ctx, target)
}

func (d *Downloader) fetch(ctx context.Context, target string) *domain.Content {
	failure := func(errText string) *domain.Content {
		return &domain.Content{
			Downloaded:   false,
			Error:        errText,
			DownloadDate: time.Now(),
			URLUsed:      target,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return failure(fmt.Sprintf("unexpected_error: %v", err))
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return failure(classifyFetchError(err))
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		d.logger.Debugf("unexpected response status %d for %s", resp.StatusCode, target)
		return failure(fmt.Sprintf("status_code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(classifyFetchError(err))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/html"
	}

	path, err := d.store.Save(target, contentType, body)
	if err != nil {
		return failure(fmt.Sprintf("unexpected_error: %v", err))
	}

	d.logger.Debug("content downloaded",
		logger.String("url", target),
		logger.Int64("size", int64(len(body))),
		logger.String("path", path))

	return &domain.Content{
		Downloaded:   true,
		Path:         path,
		Size:         int64(len(body)),
		MIMEType:     contentType,
		DownloadDate: time.Now(),
		URLUsed:      target,
	}
}

// classifyFetchError buckets a transport failure into the content error
// taxonomy: "timeout" for deadline hits, "client_error: <msg>" for
// recognizable transport failures, "unexpected_error: <msg>" otherwise.
func classifyFetchError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("client_error: %v", urlErr.Err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("client_error: %v", err)
	}

	return fmt.Sprintf("unexpected_error: %v", err)
}
