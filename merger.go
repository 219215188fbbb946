package site2pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/alnah/go-site2pdf/internal/fileutil"
)

// Merger concatenates PDF files.
type Merger interface {
	Merge(ctx context.Context, inputs []string, output string) error
	PageCount(path string) (int, error)
}

// Bookmark is one outline entry, pointing at a 1-based page.
type Bookmark struct {
	Title string
	Page  int
}

// Outliner is implemented by mergers that can add a document outline.
type Outliner interface {
	AddOutline(ctx context.Context, path string, bookmarks []Bookmark) error
}

var (
	_ Merger   = (*pdfcpuMerger)(nil)
	_ Outliner = (*pdfcpuMerger)(nil)
)

// pdfcpuMerger merges and inspects PDFs with pdfcpu.
type pdfcpuMerger struct {
	conf *model.Configuration
}

// NewMerger returns the pdfcpu-backed Merger.
func NewMerger() Merger {
	return newPdfcpuMerger()
}

func newPdfcpuMerger() *pdfcpuMerger {
	conf := model.NewDefaultConfiguration()
	// Chrome output occasionally trips strict validation.
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfcpuMerger{conf: conf}
}

// Merge writes the concatenation of inputs, in order, to output.
func (m *pdfcpuMerger) Merge(ctx context.Context, inputs []string, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := api.MergeCreateFile(inputs, output, false, m.conf); err != nil {
		return fmt.Errorf("merging %d files: %w", len(inputs), err)
	}
	return nil
}

// PageCount returns the number of pages of the PDF at path.
func (m *pdfcpuMerger) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}

// AddOutline replaces the outline of the PDF at path with bookmarks.
func (m *pdfcpuMerger) AddOutline(ctx context.Context, path string, bookmarks []Bookmark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bms := make([]pdfcpu.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		bms = append(bms, pdfcpu.Bookmark{Title: b.Title, PageFrom: b.Page})
	}
	tmp, err := fileutil.TempSibling(path)
	if err != nil {
		return err
	}
	if err := api.AddBookmarksFile(path, tmp, bms, true, m.conf); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("adding outline: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("adding outline: %w", err)
	}
	return nil
}
