// Package cover generates the optional contents page placed in front of the
// merged document. It lists every rendered page with its position and, when
// page counts are known, the page it starts on.
package cover

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/alnah/go-site2pdf/internal/dateutil"
)

// ErrNoEntries is returned when there is nothing to list.
var ErrNoEntries = errors.New("contents page has no entries")

// Layout in millimetres.
const (
	margin     = 15.0
	lineHeight = 6.0
	indexWidth = 12.0
	pageWidth  = 16.0
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Contents"

// Entry is one listed page.
type Entry struct {
	Index    int
	Title    string
	Category string
	Pages    int // page count of the entry's own PDF, 0 when unknown
}

// Options configures the contents page.
type Options struct {
	Title     string
	Subtitle  string    // typically the site URL
	PageSize  string    // a4, letter or legal; empty means a4
	Generated time.Time // zero leaves the PDF creation date to gofpdf
	// DateFormat lays out the "Generated" line (dateutil layout or preset).
	// The line is omitted when Generated is zero.
	DateFormat string
}

// Render returns the contents page PDF. When every entry has a page count,
// each line shows the page the entry starts on in the final document, which
// begins with the contents page itself.
func Render(entries []Entry, opts Options) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	// The listing's own length shifts every start page, so lay it out once
	// without numbers to learn it.
	_, ownPages, err := render(entries, nil, opts)
	if err != nil {
		return nil, err
	}

	starts := startPages(entries, ownPages)
	data, _, err := render(entries, starts, opts)
	return data, err
}

// startPages returns the first page of each entry, or nil when a count is
// missing.
func startPages(entries []Entry, offset int) []int {
	starts := make([]int, len(entries))
	next := offset + 1
	for i, e := range entries {
		if e.Pages <= 0 {
			return nil
		}
		starts[i] = next
		next += e.Pages
	}
	return starts
}

func render(entries []Entry, starts []int, opts Options) ([]byte, int, error) {
	size := opts.PageSize
	if size == "" {
		size = "a4"
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	var generated string
	if !opts.Generated.IsZero() {
		date, err := dateutil.Format(opts.Generated, opts.DateFormat)
		if err != nil {
			return nil, 0, err
		}
		generated = "Generated " + date
	}

	pdf := gofpdf.New("P", "mm", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("go-site2pdf", true)
	if !opts.Generated.IsZero() {
		pdf.SetCreationDate(opts.Generated)
	}
	// Core fonts are cp1252; translate so accented titles survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	if opts.Subtitle != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr(opts.Subtitle), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	if generated != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 4, tr(generated), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(6)

	w, _ := pdf.GetPageSize()
	titleWidth := w - 2*margin - indexWidth - pageWidth

	category := ""
	for i, e := range entries {
		if e.Category != category {
			category = e.Category
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, lineHeight+1, tr(category), "B", 1, "L", false, 0, "")
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(indexWidth, lineHeight, strconv.Itoa(e.Index), "", 0, "R", false, 0, "")
		pdf.CellFormat(titleWidth, lineHeight, " "+fit(pdf, tr(e.Title), titleWidth-2), "", 0, "L", false, 0, "")
		page := ""
		if starts != nil {
			page = strconv.Itoa(starts[i])
		}
		pdf.CellFormat(pageWidth, lineHeight, page, "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, 0, fmt.Errorf("building contents page: %w", err)
	}
	pages := pdf.PageNo()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("writing contents page: %w", err)
	}
	return buf.Bytes(), pages, nil
}

// fit shortens s with an ellipsis until it is at most width wide in the
// current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > width {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
