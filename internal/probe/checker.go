package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pjoubert/linkvigil/internal/domain"
	"github.com/pjoubert/linkvigil/internal/logger"
	"github.com/pjoubert/linkvigil/internal/utils"
)

// Checker determines reachability, redirect target and TLS validity for
// bookmark URLs. One Checker is shared by every probe task; it keeps no
// per-record state.
type Checker struct {
	headClient *http.Client // never follows redirects
	getClient  *http.Client // follows redirects (HEAD-unsupported fallback)
	timeout    time.Duration
	userAgent  string
	logger     logger.Logger

	// TLS handshake targets host:tlsPort with roots as trust anchors.
	// Overridden in tests; production uses 443 and the system pool.
	tlsPort  string
	tlsRoots *x509.CertPool
}

// NewChecker creates a Checker. The HTTP clients skip their own
// certificate verification: reachability is probed even on hosts with
// broken TLS, and certificate validity is judged separately by the raw
// handshake.
func NewChecker(timeout time.Duration, userAgent string, log logger.Logger) *Checker {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // reachability only, validity checked separately
		},
		DisableKeepAlives: true,
	}

	return &Checker{
		headClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		getClient: &http.Client{Transport: transport},
		timeout:   timeout,
		userAgent: userAgent,
		logger:    log,
		tlsPort:   "443",
	}
}

// Check probes a single record and populates rec.Status. All failures
// are absorbed into the status classification; Check never lets one
// bookmark abort the batch.
func (c *Checker) Check(ctx context.Context, rec *domain.BookmarkRecord) {
	start := time.Now()
	code, redirectURL := c.probe(ctx, rec.URL)

	var sslValid *bool
	if strings.HasPrefix(rec.URL, "https://") {
		valid := c.validateTLS(rec.URL)
		sslValid = &valid
	}

	rec.Status = domain.NewStatus(code, redirectURL, time.Since(start).Seconds(), sslValid, time.Now())

	c.logger.Debug("probed",
		logger.String("url", rec.URL),
		logger.Int("code", code),
		logger.Bool("accessible", rec.Status.Accessible),
		logger.Float64("response_time", rec.Status.ResponseTime))
}

// probe runs the HEAD request and, for 4xx/5xx results, one GET
// fallback: some servers reject HEAD-style probes or answer them
// differently, so a failing HEAD is confirmed under GET before the code
// is final.
func (c *Checker) probe(ctx context.Context, rawURL string) (code int, redirectURL string) {
	code, redirectURL, err := c.head(ctx, rawURL)
	if err != nil {
		c.logger.Debugf("probe failed for %s: %v", rawURL, err)
		return classifyError(err), ""
	}

	if code >= 400 {
		if getCode, getRedirect, getErr := c.confirmGet(ctx, rawURL); getErr == nil {
			code, redirectURL = getCode, getRedirect
		}
		// On fallback failure the original HEAD result stands.
	}

	return code, redirectURL
}

// head issues the non-redirect-following probe request and resolves any
// Location header it returns.
func (c *Checker) head(ctx context.Context, rawURL string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.headClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer utils.Close(resp.Body)

	var redirectURL string
	if domain.IsRedirect(resp.StatusCode) {
		if loc := resp.Header.Get("Location"); loc != "" {
			redirectURL = ResolveRedirect(rawURL, loc)
		}
	}

	return resp.StatusCode, redirectURL, nil
}

// confirmGet follows redirects to their end. Its final response is
// normally non-3xx, but a Location is still resolved if one surfaces.
func (c *Checker) confirmGet(ctx context.Context, rawURL string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.getClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer utils.Close(resp.Body)

	var redirectURL string
	if domain.IsRedirect(resp.StatusCode) {
		if loc := resp.Header.Get("Location"); loc != "" {
			redirectURL = ResolveRedirect(rawURL, loc)
		}
	}

	return resp.StatusCode, redirectURL, nil
}

// statusCarrier is satisfied by errors that carry the HTTP status of a
// completed exchange.
type statusCarrier interface {
	HTTPStatus() int
}

// classifyError maps a request error onto the status taxonomy:
// timeouts to 408, connection-level failures (dial, DNS) to 0, other
// request-related errors to -1, anything unrecognized to -2.
func classifyError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.CodeTimeout
	}

	var carrier statusCarrier
	if errors.As(err, &carrier) {
		return carrier.HTTPStatus()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.CodeConnectionFailed
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.CodeConnectionFailed
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.CodeClientError
	}

	return domain.CodeUnknownError
}
