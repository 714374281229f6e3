package domain

import (
	"sort"
	"time"
)

// BookmarkRecord is the unit of work flowing through the pipeline.
// Records enter with only identity fields set, gain a Status in the
// probe phase and a Content in the fetch phase, and are handed to the
// analysis stages unchanged in shape.
type BookmarkRecord struct {
	// ─────────────────────────────
	// Identity (immutable once extracted)
	// ─────────────────────────────

	// ID is the record's position in the original export.
	// Phases sort their output by ID to restore deterministic order.
	ID int `json:"id" yaml:"id"`

	// URL is the bookmarked address.
	URL string `json:"url" yaml:"url"`

	// Domain is the host component of URL, precomputed by the
	// extraction stage. Used for per-host scheduling.
	Domain string `json:"domain" yaml:"domain"`

	// ─────────────────────────────
	// Extraction metadata (carried through untouched)
	// ─────────────────────────────

	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Folder  string `json:"folder,omitempty" yaml:"folder,omitempty"`
	AddDate string `json:"add_date,omitempty" yaml:"add_date,omitempty"`

	// ─────────────────────────────
	// Phase results
	// ─────────────────────────────

	// Status is set by the probe phase. Nil until then.
	Status *Status `json:"status,omitempty" yaml:"status,omitempty"`

	// Content is set by the fetch phase. Nil until then.
	Content *Content `json:"content,omitempty" yaml:"content,omitempty"`
}

// Status holds the result of probing a bookmark's URL.
// It is always fully populated after the probe phase, even when the
// probe itself failed (the failure is encoded in Code).
type Status struct {
	// Code is the final HTTP status, or one of the taxonomy codes
	// (CodeConnectionFailed, CodeClientError, CodeUnknownError) when
	// no HTTP status was obtained.
	Code int `json:"code" yaml:"code"`

	// Accessible is true iff 200 <= Code < 400.
	Accessible bool `json:"accessible" yaml:"accessible"`

	// Redirect is true iff 300 <= Code < 400.
	Redirect bool `json:"redirect" yaml:"redirect"`

	// RedirectURL is the resolved redirect target.
	// Set only when Redirect is true.
	RedirectURL string `json:"redirect_url,omitempty" yaml:"redirect_url,omitempty"`

	// ResponseTime is the wall time of the whole probe, in seconds.
	ResponseTime float64 `json:"response_time" yaml:"response_time"`

	// SSLValid is nil for non-https URLs; otherwise the verdict of an
	// independent TLS handshake against host:443.
	SSLValid *bool `json:"ssl_valid" yaml:"ssl_valid"`

	// LastChecked is when the probe completed.
	LastChecked time.Time `json:"last_checked" yaml:"last_checked"`
}

// Content holds the result of fetching a bookmark's final byte content.
type Content struct {
	Downloaded bool `json:"downloaded" yaml:"downloaded"`

	// Path, Size and MIMEType are set only on successful download.
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	MIMEType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`

	DownloadDate time.Time `json:"download_date" yaml:"download_date"`

	// Error is set only on failure. See the fetch error buckets in
	// internal/fetch.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// URLUsed is the address actually fetched (the redirect target when
	// the probe recorded one). Empty for short-circuited records.
	URLUsed string `json:"url_used,omitempty" yaml:"url_used,omitempty"`
}

// ErrInaccessibleURL marks records the fetch phase short-circuited
// without any network attempt.
const ErrInaccessibleURL = "inaccessible_url"

// SortByID sorts records ascending by ID, in place. Concurrent phases
// complete in arbitrary order; this restores the original sequence.
func SortByID(records []*BookmarkRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}
