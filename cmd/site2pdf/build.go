package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	site2pdf "github.com/alnah/go-site2pdf"
	"github.com/alnah/go-site2pdf/internal/config"
	"github.com/alnah/go-site2pdf/internal/hints"
)

// runBuild crawls, renders and merges the configured site.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	f, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := resolveConfig(f.common, env)
	if err != nil {
		return err
	}
	mergeFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common)
	out := &reporter{w: env.Stdout, quiet: f.common.quiet}

	opts := append(pipelineOptions(cfg, logger), site2pdf.WithProgress(out.page))
	opts = append(opts, env.Options...)

	p, err := site2pdf.NewPipeline(siteFromConfig(cfg), opts...)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	out.infof("building %s with %d browser(s)", cfg.Site.BaseURL, p.Workers())
	report, err := p.Build(ctx)
	out.summary(report)
	return withHint(err, report)
}

// resolveConfig loads the named config file, or the environment's default
// configuration, then applies SITE2PDF_* overrides.
func resolveConfig(common commonFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	switch {
	case name != "":
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	case env.Config != nil:
		c := *env.Config
		cfg = &c
	default:
		cfg = config.DefaultConfig()
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// siteFromConfig describes the configured site for the pipeline.
func siteFromConfig(cfg *config.Config) site2pdf.Site {
	base := cfg.Site.BaseURL
	if base == "" {
		base = "https://" + cfg.Site.Domain
	}
	buckets := make([]site2pdf.Bucket, len(cfg.Site.Buckets))
	for i, b := range cfg.Site.Buckets {
		buckets[i] = site2pdf.Bucket{Name: b.Name, Match: b.Match}
	}
	return site2pdf.Site{
		Domain:   cfg.Site.Domain,
		BaseURL:  base,
		Chapters: cfg.Site.Chapters,
		Extras:   cfg.Site.Extras,
		Buckets:  buckets,
	}
}

// pipelineOptions translates a validated config into pipeline options.
func pipelineOptions(cfg *config.Config, logger *slog.Logger) []site2pdf.Option {
	pageSize := strings.ToLower(cfg.Render.PageSize)
	if pageSize == "" {
		pageSize = site2pdf.PageSizeA4
	}

	return []site2pdf.Option{
		site2pdf.WithLogger(logger),
		site2pdf.WithMaxPages(cfg.Crawl.MaxPages),
		site2pdf.WithCrawlDelay(cfg.Crawl.Delay),
		site2pdf.WithFetchTimeout(cfg.Crawl.Timeout),
		site2pdf.WithUserAgent(cfg.Crawl.UserAgent),
		site2pdf.WithRespectRobots(cfg.Crawl.RespectRobots),
		site2pdf.WithExcludedExtensions(cfg.Site.ExcludeExtensions...),
		site2pdf.WithTimeout(cfg.Render.Timeout),
		site2pdf.WithWorkers(cfg.Render.Workers),
		site2pdf.WithRetryDelays(retryDelays(cfg.Render.Retries)...),
		site2pdf.WithPDFOptions(&site2pdf.PDFOptions{
			PageSize:       pageSize,
			MarginTopMM:    cfg.Render.Margins.Top,
			MarginBottomMM: cfg.Render.Margins.Bottom,
			MarginLeftMM:   cfg.Render.Margins.Left,
			MarginRightMM:  cfg.Render.Margins.Right,
		}),
		site2pdf.WithBrowserBin(cfg.Render.BrowserBin),
		site2pdf.WithNoSandbox(cfg.Render.NoSandbox),
		site2pdf.WithWorkDir(cfg.Output.WorkDir),
		site2pdf.WithOutput(cfg.Output.File),
		site2pdf.WithOutline(cfg.Output.Outline),
		site2pdf.WithManifest(cfg.Output.Manifest),
		site2pdf.WithContentsPage(cfg.Output.ContentsPage, ""),
		site2pdf.WithDateFormat(cfg.Output.DateFormat),
	}
}

// retryDelays waits one second longer before each further attempt.
func retryDelays(retries int) []time.Duration {
	delays := make([]time.Duration, retries)
	for i := range delays {
		delays[i] = time.Duration(i+1) * time.Second
	}
	return delays
}
