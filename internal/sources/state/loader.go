package state

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pjoubert/linkvigil/internal/domain"
)

// Loader reads a bookmark state file: the extraction stage's output or
// a snapshot from an earlier pipeline run. YAML is a superset of JSON,
// so one decoder accepts both formats.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given state file
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the state file.
func (l *Loader) Load() ([]*domain.BookmarkRecord, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var records []*domain.BookmarkRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	for _, rec := range records {
		if rec.URL == "" {
			return nil, fmt.Errorf("record %d has no URL", rec.ID)
		}
		// The extraction stage normally precomputes Domain; tolerate
		// hand-written inputs that leave it out.
		if rec.Domain == "" {
			u, err := url.Parse(rec.URL)
			if err != nil {
				return nil, fmt.Errorf("record %d has unparseable URL %q: %w", rec.ID, rec.URL, err)
			}
			rec.Domain = u.Host
		}
	}

	return records, nil
}
