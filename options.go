package site2pdf

import (
	"log/slog"
	"time"

	"github.com/alnah/go-site2pdf/internal/crawl"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// Defaults for engsoftmoderna.info, the site the tool was first built for.
const (
	DefaultWorkDir    = "esm_pdf_pages"
	DefaultOutputFile = "Engenharia_de_Software_Moderna_site_completo.pdf"
	DefaultMaxPages   = 1000
	DefaultUserAgent  = "go-site2pdf"
)

// pipelineConfig holds the tunables set through options.
type pipelineConfig struct {
	timeout       time.Duration
	workers       int
	retryDelays   []time.Duration
	workDir       string
	output        string
	maxPages      int
	crawlDelay    time.Duration
	fetchTimeout  time.Duration
	userAgent     string
	respectRobots bool
	excluded      []string
	pdf           *PDFOptions
	outline       bool
	contentsPage  bool
	contentsTitle string
	dateFormat    string
	manifest      bool
	browser       BrowserOptions
	onPage        func(Artifact)
}

func defaultPipelineConfig() pipelineConfig {
	return pipelineConfig{
		timeout:      DefaultTimeout,
		workers:      1,
		workDir:      DefaultWorkDir,
		output:       DefaultOutputFile,
		maxPages:     DefaultMaxPages,
		fetchTimeout: crawl.DefaultFetchTimeout,
		userAgent:    DefaultUserAgent,
		pdf:          DefaultPDFOptions(),
		outline:      true,
		manifest:     true,
	}
}

// WithTimeout sets the per-page browser timeout.
// Panics if d <= 0 (programming error).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("site2pdf: WithTimeout duration must be positive")
	}
	return func(p *Pipeline) {
		p.cfg.timeout = d
	}
}

// WithWorkers sets how many browsers render in parallel.
// 0 sizes the pool from GOMAXPROCS (see ResolvePoolSize).
func WithWorkers(n int) Option {
	if n < 0 {
		panic("site2pdf: WithWorkers count must not be negative")
	}
	return func(p *Pipeline) {
		p.cfg.workers = n
	}
}

// WithRetryDelays sets the waits between attempts of a transiently failing
// page. An empty list disables retries.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(p *Pipeline) {
		p.cfg.retryDelays = append([]time.Duration{}, delays...)
	}
}

// WithWorkDir sets the directory of partial PDFs and the run manifest.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		p.cfg.workDir = dir
	}
}

// WithOutput sets the final PDF path.
func WithOutput(path string) Option {
	return func(p *Pipeline) {
		p.cfg.output = path
	}
}

// WithLogger sets the structured logger. The run ID is added to it.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxPages caps the number of crawled pages. 0 means unlimited.
func WithMaxPages(n int) Option {
	return func(p *Pipeline) {
		p.cfg.maxPages = max(n, 0)
	}
}

// WithCrawlDelay paces page fetches to one per d.
func WithCrawlDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.cfg.crawlDelay = d
	}
}

// WithFetchTimeout bounds one page fetch of the crawler.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.cfg.fetchTimeout = d
		}
	}
}

// WithUserAgent sets the crawler's User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Pipeline) {
		if ua != "" {
			p.cfg.userAgent = ua
		}
	}
}

// WithRespectRobots makes the crawler obey robots.txt.
func WithRespectRobots(respect bool) Option {
	return func(p *Pipeline) {
		p.cfg.respectRobots = respect
	}
}

// WithExcludedExtensions adds path extensions the crawler ignores.
func WithExcludedExtensions(exts ...string) Option {
	return func(p *Pipeline) {
		p.cfg.excluded = append(p.cfg.excluded, exts...)
	}
}

// WithPDFOptions sets paper size and margins.
func WithPDFOptions(opts *PDFOptions) Option {
	return func(p *Pipeline) {
		if opts != nil {
			p.cfg.pdf = opts
		}
	}
}

// WithOutline toggles one bookmark per page in the final PDF.
func WithOutline(enabled bool) Option {
	return func(p *Pipeline) {
		p.cfg.outline = enabled
	}
}

// WithContentsPage prepends a generated contents page titled title
// (cover.DefaultTitle when empty).
func WithContentsPage(enabled bool, title string) Option {
	return func(p *Pipeline) {
		p.cfg.contentsPage = enabled
		p.cfg.contentsTitle = title
	}
}

// WithDateFormat sets the layout of the contents page's date line, either a
// dateutil preset ("iso", "long") or tokens such as "DD/MM/YYYY".
func WithDateFormat(layout string) Option {
	return func(p *Pipeline) {
		p.cfg.dateFormat = layout
	}
}

// WithManifest toggles the YAML run manifest in the work directory.
func WithManifest(enabled bool) Option {
	return func(p *Pipeline) {
		p.cfg.manifest = enabled
	}
}

// WithProgress registers a callback invoked once per rendered or skipped page.
func WithProgress(fn func(Artifact)) Option {
	return func(p *Pipeline) {
		p.cfg.onPage = fn
	}
}

// WithBrowserBin sets the Chrome binary used by the default renderer.
func WithBrowserBin(path string) Option {
	return func(p *Pipeline) {
		p.cfg.browser.Bin = path
	}
}

// WithNoSandbox disables Chrome's sandbox in the default renderer.
func WithNoSandbox(enabled bool) Option {
	return func(p *Pipeline) {
		p.cfg.browser.NoSandbox = enabled
	}
}

// WithLinkExtractor replaces the colly link extractor.
func WithLinkExtractor(e LinkExtractor) Option {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

// WithRendererFactory replaces the headless Chrome renderer.
func WithRendererFactory(f RendererFactory) Option {
	return func(p *Pipeline) {
		p.factory = f
	}
}

// WithMerger replaces the pdfcpu merger.
func WithMerger(m Merger) Option {
	return func(p *Pipeline) {
		p.merger = m
	}
}
