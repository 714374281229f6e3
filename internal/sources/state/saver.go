package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pjoubert/linkvigil/internal/domain"
)

// layout is the directory structure created under the output root.
// Content and snapshots land in data/; the reporting stages consume
// the reports/ directories.
var layout = []string{
	"data/raw",
	"data/processed",
	"data/content",
	"reports/charts",
	"reports/csv",
}

// EnsureLayout creates the output directory structure.
func EnsureLayout(outputDir string) error {
	for _, dir := range layout {
		if err := os.MkdirAll(filepath.Join(outputDir, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// Saver writes per-stage snapshots of the batch so later pipeline
// stages (or a rerun fed a snapshot as its input file) can pick up
// where a phase left off.
type Saver struct {
	outputDir string
}

// NewSaver creates a Saver rooted at outputDir.
func NewSaver(outputDir string) *Saver {
	return &Saver{
		outputDir: outputDir,
	}
}

// Save writes records as data/processed/bookmarks_<stage>_<ts>.json and
// returns the snapshot path.
func (s *Saver) Save(records []*domain.BookmarkRecord, stage string) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}

	filename := fmt.Sprintf("bookmarks_%s_%s.json", stage, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, "data", "processed", filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return path, nil
}
