package site2pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/manifest"
	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// minIndexWidth is the smallest zero padding of partial file names.
const minIndexWidth = 4

// partialFile matches the names PartialName produces.
var partialFile = regexp.MustCompile(`^[0-9]{4,}-[A-Za-z0-9._-]+\.pdf$`)

// DefaultRetryDelays are the waits before the second and third attempt of a
// page that failed transiently.
var DefaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second}

// PageCounter reports the number of pages of a PDF file.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// RenderOptions configures RenderPages.
type RenderOptions struct {
	Dir         string          // partial PDFs directory, created when missing
	PDF         *PDFOptions     // nil means DefaultPDFOptions
	RetryDelays []time.Duration // nil means DefaultRetryDelays, empty disables retries
	Counter     PageCounter     // optional, fills Artifact.Pages
	Logger      *slog.Logger

	// OnPage is called once per page after its final attempt.
	// Calls are serialized.
	OnPage func(Artifact)
}

func (o *RenderOptions) retryDelays() []time.Duration {
	if o.RetryDelays == nil {
		return DefaultRetryDelays
	}
	return o.RetryDelays
}

func (o *RenderOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// PartialName returns the file name of a page's partial PDF. Indexes are
// zero padded to the width of total (at least four digits), so lexicographic
// file order equals document order.
func PartialName(page Page, total int) string {
	width := max(minIndexWidth, len(strconv.Itoa(total)))
	return fmt.Sprintf("%0*d-%s.pdf", width, page.Index, fileutil.Slug(urlscope.Path(page.URL)))
}

// RenderPages prints every page to its own partial PDF in opts.Dir.
//
// A page that cannot be rendered is logged and returned with Err set; the
// other pages are still rendered. Pages are rendered one by one when the pool
// holds a single renderer, otherwise up to pool.Size() at a time. The result
// has one artifact per page, in the order of pages.
func RenderPages(ctx context.Context, pool *RendererPool, pages []Page, opts RenderOptions) []Artifact {
	log := opts.logger()
	results := make([]Artifact, len(pages))

	if err := prepareDir(opts.Dir, log); err != nil {
		log.Error("cannot prepare pages directory", "dir", opts.Dir, "error", err)
		for i, p := range pages {
			results[i] = Artifact{Page: p, Err: fmt.Errorf("%w: %v", ErrWritePartial, err)}
		}
		return results
	}

	var mu sync.Mutex
	done := func(i int, a Artifact) {
		results[i] = a
		logArtifact(log, a)
		if opts.OnPage != nil {
			mu.Lock()
			opts.OnPage(a)
			mu.Unlock()
		}
	}

	if pool.Size() == 1 {
		renderSequential(ctx, pool, pages, opts, done)
	} else {
		renderParallel(ctx, pool, pages, opts, done)
	}
	return results
}

// prepareDir creates dir and removes the partial PDFs that the previous
// run's manifest lists. Without a manifest nothing is removed, so a shared
// directory never loses files this tool did not write.
func prepareDir(dir string, log *slog.Logger) error {
	if err := fileutil.EnsureDir(dir); err != nil {
		return err
	}

	prev, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("previous manifest unreadable, keeping old partials", "dir", dir, "error", err)
		}
		return nil
	}
	names := make([]string, 0, len(prev.Pages))
	for _, p := range prev.Pages {
		names = append(names, p.File)
	}
	n, err := fileutil.RemoveListed(dir, names, partialFile)
	if err != nil {
		return fmt.Errorf("removing stale partials: %w", err)
	}
	if n > 0 {
		log.Debug("removed stale partials", "dir", dir, "files", n)
	}
	return nil
}

func renderSequential(ctx context.Context, pool *RendererPool, pages []Page, opts RenderOptions, done func(int, Artifact)) {
	r, err := pool.Acquire(ctx)
	if err != nil {
		for i, p := range pages {
			done(i, Artifact{Page: p, Err: err})
		}
		return
	}
	defer pool.Release(r)

	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			done(i, Artifact{Page: p, Err: err})
			continue
		}
		done(i, renderPage(ctx, r, p, len(pages), opts))
	}
}

func renderParallel(ctx context.Context, pool *RendererPool, pages []Page, opts RenderOptions, done func(int, Artifact)) {
	var g errgroup.Group
	g.SetLimit(pool.Size())

	for i, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				done(i, Artifact{Page: p, Err: err})
				return nil
			}
			r, err := pool.Acquire(ctx)
			if err != nil {
				done(i, Artifact{Page: p, Err: err})
				return nil
			}
			defer pool.Release(r)

			done(i, renderPage(ctx, r, p, len(pages), opts))
			return nil
		})
	}
	_ = g.Wait()
}

// renderPage renders one page, retrying transient failures, and writes the
// partial PDF.
func renderPage(ctx context.Context, r Renderer, page Page, total int, opts RenderOptions) Artifact {
	start := time.Now()
	a := Artifact{Page: page}
	path := filepath.Join(opts.Dir, PartialName(page, total))
	delays := opts.retryDelays()

	for attempt := 0; ; attempt++ {
		a.Attempts = attempt + 1

		data, err := r.Render(ctx, page.URL, opts.PDF)
		if err == nil && len(data) == 0 {
			err = fmt.Errorf("%w: empty document", ErrPDFGeneration)
		}
		if err == nil {
			a.Err = writePartial(path, data)
			if a.Err == nil {
				a.Path = path
				a.Pages = countPages(opts.Counter, path, opts.logger())
			}
			break
		}

		if attempt >= len(delays) || !isTransient(err) || ctx.Err() != nil {
			a.Err = err
			break
		}
		opts.logger().Debug("retrying page", "url", page.URL, "attempt", a.Attempts, "error", err)
		if werr := sleepCtx(ctx, delays[attempt]); werr != nil {
			a.Err = err
			break
		}
	}

	a.Duration = time.Since(start)
	return a
}

func writePartial(path string, data []byte) error {
	// #nosec G306 -- PDFs are meant to be readable
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePartial, err)
	}
	return nil
}

func countPages(c PageCounter, path string, log *slog.Logger) int {
	if c == nil {
		return 0
	}
	n, err := c.PageCount(path)
	if err != nil {
		log.Debug("cannot count pages", "file", path, "error", err)
		return 0
	}
	return n
}

// isTransient reports whether a render error is worth another attempt.
func isTransient(err error) bool {
	return errors.Is(err, ErrPageLoad) || errors.Is(err, context.DeadlineExceeded)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func logArtifact(log *slog.Logger, a Artifact) {
	if a.OK() {
		log.Info("rendered page",
			"index", a.Page.Index,
			"url", a.Page.URL,
			"attempts", a.Attempts,
			"duration", a.Duration.Round(time.Millisecond))
		return
	}
	log.Warn("skipping page",
		"index", a.Page.Index,
		"url", a.Page.URL,
		"attempts", a.Attempts,
		"error", a.Err)
}
