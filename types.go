package site2pdf

import (
	"fmt"
	"strings"
	"time"
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Margin bounds in millimetres.
const (
	MinMarginMM = 0
	MaxMarginMM = 50
)

// Default margins in millimetres.
const (
	DefaultMarginTopMM    = 12
	DefaultMarginBottomMM = 12
	DefaultMarginLeftMM   = 10
	DefaultMarginRightMM  = 10
)

const mmPerInch = 25.4

// paperInches maps a page size to its portrait width and height in inches.
var paperInches = map[string][2]float64{
	PageSizeA4:     {8.27, 11.69},
	PageSizeLetter: {8.5, 11},
	PageSizeLegal:  {8.5, 14},
}

// PDFOptions configures how a page is printed.
type PDFOptions struct {
	PageSize       string // "a4", "letter", "legal"
	MarginTopMM    float64
	MarginBottomMM float64
	MarginLeftMM   float64
	MarginRightMM  float64
}

// DefaultPDFOptions returns A4 with 12mm top/bottom and 10mm side margins.
func DefaultPDFOptions() *PDFOptions {
	return &PDFOptions{
		PageSize:       PageSizeA4,
		MarginTopMM:    DefaultMarginTopMM,
		MarginBottomMM: DefaultMarginBottomMM,
		MarginLeftMM:   DefaultMarginLeftMM,
		MarginRightMM:  DefaultMarginRightMM,
	}
}

// Validate checks page size and margins.
// Returns nil if o is nil (nil means use defaults).
func (o *PDFOptions) Validate() error {
	if o == nil {
		return nil
	}
	if _, ok := paperInches[strings.ToLower(o.PageSize)]; !ok {
		return fmt.Errorf("%w: %q (must be a4, letter, or legal)", ErrInvalidPageSize, o.PageSize)
	}
	margins := []struct {
		side string
		v    float64
	}{
		{"top", o.MarginTopMM},
		{"bottom", o.MarginBottomMM},
		{"left", o.MarginLeftMM},
		{"right", o.MarginRightMM},
	}
	for _, m := range margins {
		if m.v < MinMarginMM || m.v > MaxMarginMM {
			return fmt.Errorf("%w: %s %.1fmm (must be between %d and %d)", ErrInvalidMargin, m.side, m.v, MinMarginMM, MaxMarginMM)
		}
	}
	return nil
}

// paper returns the paper width and height in inches.
func (o *PDFOptions) paper() (width, height float64) {
	size, ok := paperInches[strings.ToLower(o.PageSize)]
	if !ok {
		size = paperInches[PageSizeA4]
	}
	return size[0], size[1]
}

// Page is one URL placed in the final document.
type Page struct {
	URL      string
	Rank     int    // category key, lower ranks come first
	Category string // chapter, extra, a bucket name, or other
	Index    int    // 1-based position in the final document
}

// Artifact is the outcome of rendering one page. Path is empty and Err is
// set when the page was skipped.
type Artifact struct {
	Page     Page
	Path     string
	Pages    int // PDF page count, 0 when unknown
	Err      error
	Attempts int
	Duration time.Duration
}

// OK reports whether the page produced a partial PDF.
func (a Artifact) OK() bool {
	return a.Err == nil && a.Path != ""
}

// CrawlFailure is a page whose links could not be extracted.
type CrawlFailure struct {
	URL string
	Err error
}

// SiteMap is the ordered result of a crawl.
type SiteMap struct {
	Pages   []Page
	Failed  []CrawlFailure
	Visited int
	Capped  bool     // the page limit stopped discovery
	Refused []string // in-scope URLs left out by the page limit
}

// Report describes a Build run.
type Report struct {
	RunID     string
	Map       *SiteMap
	Artifacts []Artifact
	Merge     *MergeResult
	Manifest  string // path of the run manifest, empty when disabled
	Started   time.Time
	Finished  time.Time
}

// Rendered returns the artifacts that produced a partial PDF.
func (r *Report) Rendered() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.OK() {
			out = append(out, a)
		}
	}
	return out
}

// Skipped returns the artifacts of pages that could not be rendered.
func (r *Report) Skipped() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if !a.OK() {
			out = append(out, a)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
