package site2pdf

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-site2pdf/internal/cover"
	"github.com/alnah/go-site2pdf/internal/crawl"
	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/manifest"
	"github.com/alnah/go-site2pdf/internal/order"
	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// LinkExtractor returns the raw href values found on a page.
type LinkExtractor = crawl.LinkExtractor

// ContentsFile is the contents page's file name inside the work directory.
const ContentsFile = "contents.pdf"

// Bucket groups pages whose path contains Match into one ordering block.
type Bucket struct {
	Name  string
	Match string
}

// Site describes the crawled site and its page taxonomy.
// Chapters and Extras are paths ("/cap1.html") or absolute URLs.
type Site struct {
	Domain   string
	BaseURL  string
	Chapters []string
	Extras   []string
	Buckets  []Bucket
}

// Seeds returns the chapters, then the extras, resolved against BaseURL.
// Entries that do not resolve to an http(s) URL are dropped.
func (s Site) Seeds() []string {
	seeds := make([]string, 0, len(s.Chapters)+len(s.Extras))
	for _, list := range [][]string{s.Chapters, s.Extras} {
		for _, raw := range list {
			u, err := urlscope.Normalize(raw, s.BaseURL)
			if err != nil {
				continue
			}
			seeds = append(seeds, u)
		}
	}
	return seeds
}

// Validate checks that the site has a domain, a base URL on that domain and
// at least one seed inside it.
func (s Site) Validate() error {
	if strings.TrimSpace(s.Domain) == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidSite)
	}
	scope := urlscope.NewScope(s.Domain)
	base, err := urlscope.Normalize(s.BaseURL, "")
	if err != nil {
		return fmt.Errorf("%w: base URL %q: %v", ErrInvalidSite, s.BaseURL, err)
	}
	if !scope.InScope(base) {
		return fmt.Errorf("%w: base URL %q is not on %s", ErrInvalidSite, s.BaseURL, s.Domain)
	}
	for _, seed := range s.Seeds() {
		if scope.InScope(seed) {
			return nil
		}
	}
	return fmt.Errorf("%w: no chapter or extra page on %s", ErrInvalidSite, s.Domain)
}

func (s Site) taxonomy() order.Taxonomy {
	buckets := make([]order.Bucket, len(s.Buckets))
	for i, b := range s.Buckets {
		buckets[i] = order.Bucket{Name: b.Name, Match: b.Match}
	}
	return order.Taxonomy{Chapters: s.Chapters, Extras: s.Extras, Buckets: buckets}
}

// Pipeline crawls a site, orders its pages, renders them and merges the
// result. It owns the browsers it starts: call Close when done.
type Pipeline struct {
	site      Site
	cfg       pipelineConfig
	runID     string
	logger    *slog.Logger
	scope     *urlscope.Scope
	extractor LinkExtractor
	factory   RendererFactory
	merger    Merger
	pool      *RendererPool
	now       func() time.Time
}

// NewPipeline validates site and wires the default collaborators: the colly
// link extractor, headless Chrome renderers and the pdfcpu merger. No
// browser is started before the first page is rendered.
func NewPipeline(site Site, opts ...Option) (*Pipeline, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		site:   site,
		cfg:    defaultPipelineConfig(),
		runID:  manifest.NewRunID(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.cfg.pdf.Validate(); err != nil {
		return nil, err
	}

	p.logger = p.logger.With("run", p.runID)
	p.scope = urlscope.NewScope(site.Domain, p.cfg.excluded...)

	if p.extractor == nil {
		p.extractor = crawl.NewCollyExtractor(crawl.CollyOptions{
			AllowedDomain: p.scope.Domain,
			UserAgent:     p.cfg.userAgent,
			Timeout:       p.cfg.fetchTimeout,
			RespectRobots: p.cfg.respectRobots,
		})
	}
	if p.factory == nil {
		timeout, browser := p.cfg.timeout, p.cfg.browser
		p.factory = func() Renderer { return newRodRenderer(timeout, browser) }
	}
	if p.merger == nil {
		p.merger = NewMerger()
	}
	p.pool = NewRendererPool(ResolvePoolSize(p.cfg.workers), p.factory)

	return p, nil
}

// RunID identifies this pipeline's run in logs and the manifest.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Workers returns the number of browsers that may render in parallel.
func (p *Pipeline) Workers() int {
	return p.pool.Size()
}

// Map crawls the site and returns every visited page in document order.
// Pages whose links could not be extracted are still part of the map and
// listed in SiteMap.Failed. On cancellation the partial map is returned
// together with the context error.
func (p *Pipeline) Map(ctx context.Context) (*SiteMap, error) {
	crawler := &crawl.Crawler{
		Extractor: p.extractor,
		Scope:     p.scope,
		Limiter:   crawl.NewLimiter(p.cfg.crawlDelay),
		MaxPages:  p.cfg.maxPages,
		Logger:    p.logger,
	}

	seeds := p.site.Seeds()
	p.logger.Info("crawling site", "base_url", p.site.BaseURL, "seeds", len(seeds))
	res, err := crawler.Crawl(ctx, seeds)
	if res == nil {
		return nil, err
	}

	entries := p.site.taxonomy().Order(res.Visited)
	sm := &SiteMap{
		Pages:   make([]Page, len(entries)),
		Failed:  make([]CrawlFailure, len(res.Failed)),
		Visited: len(res.Visited),
		Capped:  res.Capped,
		Refused: res.Refused,
	}
	for i, e := range entries {
		sm.Pages[i] = Page{URL: e.URL, Rank: e.Rank, Category: e.Category, Index: e.Index}
	}
	for i, f := range res.Failed {
		sm.Failed[i] = CrawlFailure{URL: f.URL, Err: f.Err}
	}

	p.logger.Info("crawl finished", "visited", sm.Visited, "failed", len(sm.Failed), "refused", len(sm.Refused), "links", res.Discovered)
	return sm, err
}

// Build runs the whole pipeline: crawl, order, render every page, then merge
// the rendered pages into the output file. Pages that fail to render are
// skipped and reported. Build returns ErrNoArtifacts when nothing could be
// rendered and ErrMerge when the final document cannot be written; the
// report is returned in every case where a crawl took place.
func (p *Pipeline) Build(ctx context.Context) (*Report, error) {
	report := &Report{RunID: p.runID, Started: p.now()}
	defer func() { report.Finished = p.now() }()

	sm, err := p.Map(ctx)
	report.Map = sm
	if err != nil {
		return report, err
	}

	p.logger.Info("rendering pages", "pages", len(sm.Pages), "workers", p.pool.Size(), "dir", p.cfg.workDir)
	report.Artifacts = RenderPages(ctx, p.pool, sm.Pages, RenderOptions{
		Dir:         p.cfg.workDir,
		PDF:         p.cfg.pdf,
		RetryDelays: p.cfg.retryDelays,
		Counter:     p.merger,
		Logger:      p.logger,
		OnPage:      p.cfg.onPage,
	})
	if err := ctx.Err(); err != nil {
		return report, err
	}

	var contents string
	if p.cfg.contentsPage {
		contents, err = p.writeContents(report)
		if err != nil {
			p.logger.Warn("building without contents page", "error", err)
		}
	}

	merged, mergeErr := MergeArtifacts(ctx, p.merger, report.Artifacts, MergeOptions{
		Output:   p.cfg.output,
		Outline:  p.cfg.outline,
		Contents: contents,
		Logger:   p.logger,
	})
	report.Merge = merged
	if mergeErr == nil {
		p.logger.Info("merged document", "output", merged.Output, "files", merged.Files, "pages", merged.Pages)
	}

	if p.cfg.manifest {
		path, err := p.writeManifest(report, mergeErr)
		if err != nil {
			p.logger.Warn("cannot write manifest", "error", err)
		} else {
			report.Manifest = path
		}
	}

	return report, mergeErr
}

// Close releases every browser started by the pipeline. It is safe to call
// more than once.
func (p *Pipeline) Close() error {
	return p.pool.Close()
}

// writeContents renders the contents page for the rendered artifacts.
func (p *Pipeline) writeContents(report *Report) (string, error) {
	rendered := report.Rendered()
	slices.SortFunc(rendered, func(a, b Artifact) int { return cmp.Compare(a.Page.Index, b.Page.Index) })

	entries := make([]cover.Entry, len(rendered))
	for i, a := range rendered {
		entries[i] = cover.Entry{
			Index:    a.Page.Index,
			Title:    PageTitle(a.Page.URL),
			Category: a.Page.Category,
			Pages:    a.Pages,
		}
	}

	data, err := cover.Render(entries, cover.Options{
		Title:      p.cfg.contentsTitle,
		Subtitle:   p.site.BaseURL,
		PageSize:   p.cfg.pdf.PageSize,
		Generated:  report.Started,
		DateFormat: p.cfg.dateFormat,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrContentsPage, err)
	}

	path := filepath.Join(p.cfg.workDir, ContentsFile)
	// #nosec G306 -- PDFs are meant to be readable
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrContentsPage, err)
	}
	return path, nil
}

// writeManifest records the run in the work directory.
func (p *Pipeline) writeManifest(report *Report, mergeErr error) (string, error) {
	m := &manifest.Manifest{
		RunID:    report.RunID,
		Site:     p.site.BaseURL,
		Started:  report.Started,
		Finished: p.now(),
		Pages:    make([]manifest.Page, len(report.Artifacts)),
	}
	for i, a := range report.Artifacts {
		mp := manifest.Page{
			Index:      a.Page.Index,
			URL:        a.Page.URL,
			Category:   a.Page.Category,
			Status:     manifest.StatusRendered,
			File:       filepath.Base(a.Path),
			PDFPages:   a.Pages,
			Attempts:   a.Attempts,
			DurationMS: a.Duration.Milliseconds(),
		}
		if !a.OK() {
			mp.Status = manifest.StatusSkipped
			mp.File = ""
			if a.Err != nil {
				mp.Error = a.Err.Error()
			}
		}
		m.Pages[i] = mp
	}
	for _, f := range report.Map.Failed {
		m.CrawlFailures = append(m.CrawlFailures, manifest.Failure{URL: f.URL, Error: errString(f.Err)})
	}
	m.Refused = append(m.Refused, report.Map.Refused...)

	mergedPages := 0
	if report.Merge != nil {
		m.Output = report.Merge.Output
		mergedPages = report.Merge.Pages
	}
	m.Tally(report.Map.Visited, mergedPages, mergeErr)

	path := filepath.Join(p.cfg.workDir, manifest.FileName)
	if err := manifest.Write(path, m); err != nil {
		return "", err
	}
	return path, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
