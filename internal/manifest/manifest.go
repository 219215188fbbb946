// Package manifest records what a build run did: which pages were ordered,
// which were rendered or skipped, and which could not be crawled.
//
// The manifest is written as YAML next to the partial PDFs so a rerun or a
// reviewer can see why a page is missing from the final document.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/yamlutil"
)

// Version is bumped when the YAML layout changes incompatibly.
const Version = 1

// FileName is the manifest's base name inside the work directory.
const FileName = "manifest.yaml"

// Page statuses.
const (
	StatusRendered = "rendered"
	StatusSkipped  = "skipped"
)

// Run statuses.
const (
	RunCompleted = "completed" // every ordered page rendered
	RunPartial   = "partial"   // some pages skipped
	RunFailed    = "failed"    // nothing to merge, or the merge failed
)

// ErrNilManifest is returned when writing a nil manifest.
var ErrNilManifest = errors.New("manifest is nil")

// Manifest is the YAML record of one run.
type Manifest struct {
	Version       int       `yaml:"version"`
	RunID         string    `yaml:"runID"`
	Site          string    `yaml:"site"`
	Started       time.Time `yaml:"started"`
	Finished      time.Time `yaml:"finished"`
	Status        string    `yaml:"status"`
	Output        string    `yaml:"output,omitempty"`
	Error         string    `yaml:"error,omitempty"`
	Totals        Totals    `yaml:"totals"`
	Pages         []Page    `yaml:"pages"`
	CrawlFailures []Failure `yaml:"crawlFailures,omitempty"`
	Refused       []string  `yaml:"refused,omitempty"` // left out by the page limit
}

// Totals summarizes the run.
type Totals struct {
	Visited       int `yaml:"visited"`
	Rendered      int `yaml:"rendered"`
	Skipped       int `yaml:"skipped"`
	CrawlFailures int `yaml:"crawlFailures"`
	Refused       int `yaml:"refused"`
	MergedPages   int `yaml:"mergedPages"`
}

// Page is one ordered page and its render outcome.
type Page struct {
	Index      int    `yaml:"index"`
	URL        string `yaml:"url"`
	Category   string `yaml:"category"`
	Status     string `yaml:"status"`
	File       string `yaml:"file,omitempty"`
	PDFPages   int    `yaml:"pdfPages,omitempty"`
	Attempts   int    `yaml:"attempts"`
	DurationMS int64  `yaml:"durationMs"`
	Error      string `yaml:"error,omitempty"`
}

// Failure is a URL whose links could not be extracted.
type Failure struct {
	URL   string `yaml:"url"`
	Error string `yaml:"error"`
}

// NewRunID returns a random identifier shared by the logs and the manifest
// of one run.
func NewRunID() string {
	return uuid.NewString()
}

// Tally recomputes Totals from Pages and CrawlFailures and derives Status.
// mergeErr is the error of the merge step, if any.
func (m *Manifest) Tally(visited, mergedPages int, mergeErr error) {
	t := Totals{
		Visited:       visited,
		CrawlFailures: len(m.CrawlFailures),
		Refused:       len(m.Refused),
		MergedPages:   mergedPages,
	}
	for _, p := range m.Pages {
		if p.Status == StatusRendered {
			t.Rendered++
		} else {
			t.Skipped++
		}
	}
	m.Totals = t

	switch {
	case mergeErr != nil:
		m.Status = RunFailed
		m.Error = mergeErr.Error()
	case t.Skipped > 0:
		m.Status = RunPartial
	default:
		m.Status = RunCompleted
	}
}

// Write stores m as YAML at path, atomically.
func Write(path string, m *Manifest) error {
	if m == nil {
		return ErrNilManifest
	}
	if m.Version == 0 {
		m.Version = Version
	}
	data, err := yamlutil.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load reads a manifest previously stored with Write.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yamlutil.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
