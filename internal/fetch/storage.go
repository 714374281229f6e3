package fetch

import (
	"crypto/md5" //nolint:gosec // filename uniqueness, not security
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxNameLength = 100

// Store persists fetched content under a per-domain directory layout:
// <root>/<domain>/<name>_<hash10>_<YYYYMMDD><ext>.
type Store struct {
	root string
}

// NewStore creates a Store rooted at <outputDir>/data/content.
func NewStore(outputDir string) *Store {
	return &Store{
		root: filepath.Join(outputDir, "data", "content"),
	}
}

// EnsureRoot creates the content root. Called once per batch before any
// download; its failure is fatal to the fetch phase.
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create content root: %w", err)
	}
	return nil
}

// Save writes body under the domain directory of rawURL and returns the
// file path. The filename combines the sanitized URL path, a short
// content-stable hash of the full URL (so differently-pathed URLs that
// sanitize to the same name stay distinct), the current date stamp and
// an extension derived from the content type.
func (s *Store) Save(rawURL, contentType string, body []byte) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", rawURL, err)
	}

	dir := filepath.Join(s.root, sanitizeDomain(u.Host))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create domain directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s%s",
		sanitizeName(u.Path),
		urlHash(rawURL),
		time.Now().Format("20060102"),
		extensionFor(contentType),
	)

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write content file: %w", err)
	}

	return path, nil
}

// sanitizeDomain replaces characters invalid in a path segment, such as
// the colon before a port number.
func sanitizeDomain(host string) string {
	return strings.ReplaceAll(host, ":", "_")
}

// sanitizeName turns a URL path into a filename stem: non-alphanumeric
// runes become underscores and the result is truncated to 100 runes.
// An empty path maps to "index".
func sanitizeName(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "index"
	}

	runes := []rune(path)
	for i, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			runes[i] = '_'
		}
	}
	if len(runes) > maxNameLength {
		runes = runes[:maxNameLength]
	}
	return string(runes)
}

// urlHash returns the first 10 hex characters of the MD5 of the URL.
func urlHash(rawURL string) string {
	sum := md5.Sum([]byte(rawURL)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:10]
}

// extensionFor maps a declared content type onto a storage extension,
// defaulting to .html for everything unrecognized.
func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "json"):
		return ".json"
	case strings.Contains(contentType, "xml"):
		return ".xml"
	case strings.Contains(contentType, "text/plain"):
		return ".txt"
	default:
		return ".html"
	}
}
