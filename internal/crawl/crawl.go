// Package crawl discovers the pages of one site with a breadth-first walk.
//
// The walk is strictly sequential: one page is fetched at a time and the
// visited set is owned by the running Crawl call, so discovery order is
// reproducible for a static site.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// Sentinel errors for crawl operations.
var (
	ErrNoSeeds     = errors.New("no in-scope seed URLs")
	ErrNoExtractor = errors.New("no link extractor configured")
	ErrNoScope     = errors.New("no scope configured")
	ErrFetch       = errors.New("failed to fetch page")
)

// LinkExtractor returns the raw href values found on a page.
// Links may be relative; the crawler resolves them against pageURL.
type LinkExtractor interface {
	ExtractLinks(ctx context.Context, pageURL string) ([]string, error)
}

// Failure records a page whose links could not be extracted.
type Failure struct {
	URL string
	Err error
}

// Result is the outcome of a crawl.
type Result struct {
	Visited    []string  // first-seen order
	Failed     []Failure // in processing order
	Discovered int       // raw links seen, before filtering
	Capped     bool      // MaxPages stopped admission of new URLs
	Refused    []string  // in-scope URLs refused by MaxPages, first-seen order
}

// Fetched returns the visited URLs whose links were extracted successfully.
func (r *Result) Fetched() []string {
	if len(r.Failed) == 0 {
		return append([]string(nil), r.Visited...)
	}
	failed := make(map[string]struct{}, len(r.Failed))
	for _, f := range r.Failed {
		failed[f.URL] = struct{}{}
	}
	out := make([]string, 0, len(r.Visited)-len(failed))
	for _, u := range r.Visited {
		if _, ok := failed[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

// Crawler walks a site breadth-first from a list of seeds.
type Crawler struct {
	Extractor LinkExtractor
	Scope     *urlscope.Scope
	Limiter   *rate.Limiter // nil disables pacing
	MaxPages  int           // 0 means unlimited
	Logger    *slog.Logger
}

// NewLimiter returns a limiter allowing one request per delay, or nil when
// delay is not positive.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Crawl visits every in-scope page reachable from seeds and returns them in
// first-seen order. A page whose links cannot be extracted is recorded in
// Result.Failed and the walk continues. When ctx is canceled the partial
// result is returned with the context error.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*Result, error) {
	if c.Extractor == nil {
		return nil, ErrNoExtractor
	}
	if c.Scope == nil {
		return nil, ErrNoScope
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{}
	visited := make(map[string]struct{})
	refused := make(map[string]struct{})
	var frontier []string

	for _, s := range seeds {
		u, ok := c.Scope.Resolve(s, "")
		if !ok {
			logger.Debug("seed out of scope", "url", s)
			continue
		}
		if _, dup := visited[u]; dup {
			continue
		}
		visited[u] = struct{}{}
		res.Visited = append(res.Visited, u)
		frontier = append(frontier, u)
	}
	if len(frontier) == 0 {
		return nil, ErrNoSeeds
	}

	for head := 0; head < len(frontier); head++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		page := frontier[head]
		frontier[head] = ""

		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return res, ctxErr
				}
				return res, fmt.Errorf("rate limiter: %w", err)
			}
		}

		links, err := c.Extractor.ExtractLinks(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			logger.Warn("skipping links of page", "url", page, "error", err)
			res.Failed = append(res.Failed, Failure{URL: page, Err: err})
			continue
		}
		logger.Debug("page fetched", "url", page, "links", len(links))
		res.Discovered += len(links)

		for _, raw := range links {
			u, ok := c.Scope.Resolve(raw, page)
			if !ok {
				continue
			}
			if _, dup := visited[u]; dup {
				continue
			}
			if c.MaxPages > 0 && len(res.Visited) >= c.MaxPages {
				res.Capped = true
				if _, seen := refused[u]; !seen {
					refused[u] = struct{}{}
					res.Refused = append(res.Refused, u)
					logger.Warn("page limit reached, skipping page", "url", u, "max_pages", c.MaxPages)
				}
				continue
			}
			visited[u] = struct{}{}
			res.Visited = append(res.Visited, u)
			frontier = append(frontier, u)
		}
	}

	return res, nil
}
