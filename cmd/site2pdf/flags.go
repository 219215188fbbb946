package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-site2pdf/internal/config"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// defaultMapLimit is how many pages map prints when --limit is not given.
const defaultMapLimit = 40

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
	logJSON bool
}

// crawlFlags holds crawler flags.
type crawlFlags struct {
	maxPages  int
	delay     time.Duration
	userAgent string
	robots    bool
}

// renderFlags holds browser and paper flags.
type renderFlags struct {
	workers   int
	timeout   time.Duration
	retries   int
	pageSize  string
	noSandbox bool
}

// outputFlags holds output location and document flags.
type outputFlags struct {
	file       string
	workDir    string
	contents   bool
	noOutline  bool
	noManifest bool
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common commonFlags
	crawl  crawlFlags
	render renderFlags
	output outputFlags

	changed func(name string) bool
}

// mapFlags holds all flags for the map command.
type mapFlags struct {
	common commonFlags
	crawl  crawlFlags
	limit  int

	changed func(name string) bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every page")
	fs.BoolVar(&f.logJSON, "log-json", false, "write logs as JSON")
}

// addCrawlFlags adds crawler flags to a FlagSet.
func addCrawlFlags(fs *flag.FlagSet, f *crawlFlags) {
	fs.IntVar(&f.maxPages, "max-pages", 0, "stop admitting pages after n (0 = unlimited)")
	fs.DurationVar(&f.delay, "delay", 0, "pause between page fetches (e.g., 200ms)")
	fs.StringVar(&f.userAgent, "user-agent", "", "crawler User-Agent header")
	fs.BoolVar(&f.robots, "robots", false, "obey robots.txt")
}

// addRenderFlags adds browser flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-page render timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.retries, "retries", 0, "retries for pages that time out")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.file, "output", "o", "", "final PDF path")
	fs.StringVar(&f.workDir, "work-dir", "", "directory for partial PDFs and the manifest")
	fs.BoolVar(&f.contents, "contents", false, "prepend a contents page")
	fs.BoolVar(&f.noOutline, "no-outline", false, "do not add PDF bookmarks")
	fs.BoolVar(&f.noManifest, "no-manifest", false, "do not write manifest.yaml")
}

// newBuildFlagSet registers every build flag into f. Completion scripts are
// generated from the same set.
func newBuildFlagSet(f *buildFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f.changed = fs.Changed

	addCommonFlags(fs, &f.common)
	addCrawlFlags(fs, &f.crawl)
	addRenderFlags(fs, &f.render)
	addOutputFlags(fs, &f.output)
	return fs
}

// newMapFlagSet registers every map flag into f.
func newMapFlagSet(f *mapFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("map", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f.changed = fs.Changed

	addCommonFlags(fs, &f.common)
	addCrawlFlags(fs, &f.crawl)
	fs.IntVar(&f.limit, "limit", defaultMapLimit, "pages to print (0 = all)")
	return fs
}

// parseBuildFlags parses build command flags. Positional arguments are rejected.
func parseBuildFlags(args []string, usage io.Writer) (*buildFlags, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet(f)
	fs.Usage = func() { printBuildUsage(usage) }

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseMapFlags parses map command flags.
func parseMapFlags(args []string, usage io.Writer) (*mapFlags, error) {
	f := &mapFlags{}
	fs := newMapFlagSet(f)
	fs.Usage = func() { printMapUsage(usage) }

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if f.limit < 0 {
		return nil, fmt.Errorf("%w: --limit must be >= 0, got %d", ErrUsage, f.limit)
	}
	return f, nil
}

// parse runs fs and wraps its failures in ErrUsage. --help is passed through
// as flag.ErrHelp after printing the usage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return nil
}

// mergeCrawlFlags copies explicitly set crawler flags into cfg.
func mergeCrawlFlags(f *crawlFlags, changed func(string) bool, cfg *config.Config) {
	if changed("max-pages") {
		cfg.Crawl.MaxPages = f.maxPages
	}
	if changed("delay") {
		cfg.Crawl.Delay = f.delay
	}
	if changed("user-agent") {
		cfg.Crawl.UserAgent = f.userAgent
	}
	if changed("robots") {
		cfg.Crawl.RespectRobots = f.robots
	}
}

// mergeFlags copies explicitly set build flags into cfg (CLI wins).
func mergeFlags(f *buildFlags, cfg *config.Config) {
	mergeCrawlFlags(&f.crawl, f.changed, cfg)

	if f.changed("workers") {
		cfg.Render.Workers = f.render.workers
	}
	if f.changed("timeout") {
		cfg.Render.Timeout = f.render.timeout
	}
	if f.changed("retries") {
		cfg.Render.Retries = f.render.retries
	}
	if f.changed("page-size") {
		cfg.Render.PageSize = f.render.pageSize
	}
	if f.render.noSandbox {
		cfg.Render.NoSandbox = true
	}

	if f.output.file != "" {
		cfg.Output.File = f.output.file
	}
	if f.output.workDir != "" {
		cfg.Output.WorkDir = f.output.workDir
	}
	if f.output.contents {
		cfg.Output.ContentsPage = true
	}
	if f.output.noOutline {
		cfg.Output.Outline = false
	}
	if f.output.noManifest {
		cfg.Output.Manifest = false
	}
}
