package site2pdf

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// ContentsTitle is the outline title of the contents page.
const ContentsTitle = "Contents"

// MergeOptions configures MergeArtifacts.
type MergeOptions struct {
	Output   string // final PDF path, overwritten when it exists
	Outline  bool   // add one bookmark per page when the merger supports it
	Contents string // optional PDF placed before the first page
	Logger   *slog.Logger
}

// MergeResult describes the final document.
type MergeResult struct {
	Output   string
	Files    int // partial PDFs merged, the contents page excluded
	Pages    int // pages of the final document
	Outlined bool
}

// MergeArtifacts merges the successful artifacts in Page.Index order into
// opts.Output. With no successful artifact it returns ErrNoArtifacts and
// leaves any existing output untouched. The output is written to a temp
// file first and renamed into place, so it is never left half-written.
func MergeArtifacts(ctx context.Context, merger Merger, artifacts []Artifact, opts MergeOptions) (*MergeResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	ok := make([]Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.OK() {
			ok = append(ok, a)
		}
	}
	if len(ok) == 0 {
		return nil, ErrNoArtifacts
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("%w: empty output path", ErrMerge)
	}
	slices.SortStableFunc(ok, func(a, b Artifact) int {
		return cmp.Compare(a.Page.Index, b.Page.Index)
	})

	inputs := make([]string, 0, len(ok)+1)
	if opts.Contents != "" {
		inputs = append(inputs, opts.Contents)
	}
	for _, a := range ok {
		inputs = append(inputs, a.Path)
	}

	if err := fileutil.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	tmp, err := fileutil.TempSibling(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := merger.Merge(ctx, inputs, tmp); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}

	res := &MergeResult{Output: opts.Output, Files: len(ok)}
	if n, err := merger.PageCount(tmp); err == nil {
		res.Pages = n
	} else {
		log.Warn("cannot count merged pages", "error", err)
	}

	if opts.Outline {
		res.Outlined = addOutline(ctx, merger, tmp, ok, opts.Contents, log)
	}

	if err := os.Rename(tmp, opts.Output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return res, nil
}

// addOutline bookmarks the first page of every merged artifact. A failure
// only costs the outline, never the document.
func addOutline(ctx context.Context, merger Merger, path string, ok []Artifact, contents string, log *slog.Logger) bool {
	outliner, supported := merger.(Outliner)
	if !supported {
		return false
	}

	var bookmarks []Bookmark
	next := 1
	if contents != "" {
		n, err := merger.PageCount(contents)
		if err != nil || n == 0 {
			log.Warn("skipping outline", "reason", "cannot count contents pages", "error", err)
			return false
		}
		bookmarks = append(bookmarks, Bookmark{Title: ContentsTitle, Page: next})
		next += n
	}

	for _, a := range ok {
		n := a.Pages
		if n == 0 {
			var err error
			if n, err = merger.PageCount(a.Path); err != nil || n == 0 {
				log.Warn("skipping outline", "reason", "cannot count pages", "url", a.Page.URL, "error", err)
				return false
			}
		}
		bookmarks = append(bookmarks, Bookmark{Title: PageTitle(a.Page.URL), Page: next})
		next += n
	}

	if err := outliner.AddOutline(ctx, path, bookmarks); err != nil {
		log.Warn("skipping outline", "error", err)
		return false
	}
	return true
}

// PageTitle derives a readable title from a page URL: its path without the
// surrounding slashes, or "home" for the site root.
func PageTitle(u string) string {
	p := strings.Trim(urlscope.Path(u), "/")
	if p == "" {
		return "home"
	}
	return p
}
