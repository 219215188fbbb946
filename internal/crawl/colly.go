package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Compile-time interface check.
var _ LinkExtractor = (*CollyExtractor)(nil)

// DefaultFetchTimeout bounds one page fetch.
const DefaultFetchTimeout = 30 * time.Second

// CollyOptions configures the colly-backed extractor.
type CollyOptions struct {
	AllowedDomain string // empty allows any host
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
}

// CollyExtractor fetches pages with colly and collects anchors with goquery.
// A fresh collector is built per call so that colly's own visited tracking
// never interferes with the crawler's.
type CollyExtractor struct {
	opts CollyOptions
}

// NewCollyExtractor returns an extractor with the given options.
func NewCollyExtractor(opts CollyOptions) *CollyExtractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	return &CollyExtractor{opts: opts}
}

// ExtractLinks fetches pageURL and returns the href of every anchor on it.
// Non-2xx responses, robots.txt refusals and transport errors are returned
// wrapped in ErrFetch. Non-HTML responses yield no links.
func (e *CollyExtractor) ExtractLinks(ctx context.Context, pageURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.newCollector(ctx)

	var links []string
	c.OnHTML("html", func(el *colly.HTMLElement) {
		el.DOM.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") {
				return
			}
			// AbsoluteURL honors <base href>; fall back to the raw value so
			// the crawler can still resolve it against the page URL.
			if abs := el.Request.AbsoluteURL(href); abs != "" {
				href = abs
			}
			links = append(links, href)
		})
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("%w: %s: status %d: %v", ErrFetch, pageURL, r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("%w: %s: %v", ErrFetch, pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, pageURL, err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	return links, nil
}

func (e *CollyExtractor) newCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
	}
	if e.opts.AllowedDomain != "" {
		opts = append(opts, colly.AllowedDomains(e.opts.AllowedDomain))
	}
	if e.opts.UserAgent != "" {
		opts = append(opts, colly.UserAgent(e.opts.UserAgent))
	}

	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(e.opts.Timeout)
	c.IgnoreRobotsTxt = !e.opts.RespectRobots
	return c
}
