package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	site2pdf "github.com/alnah/go-site2pdf"
)

// runMap crawls the configured site and prints the document order.
func runMap(ctx context.Context, args []string, env *Environment) error {
	f, err := parseMapFlags(args, env.Stderr)
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
	mergeCrawlFlags(&f.crawl, f.changed, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common)
	opts := append(pipelineOptions(cfg, logger), env.Options...)

	p, err := site2pdf.NewPipeline(siteFromConfig(cfg), opts...)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	sm, err := p.Map(ctx)
	if sm != nil {
		printMap(env.Stdout, sm, f.limit)
	}
	return err
}

// printMap lists the first limit pages (all when limit is 0) and the pages
// whose links could not be read.
func printMap(w io.Writer, sm *site2pdf.SiteMap, limit int) {
	shown := len(sm.Pages)
	if limit > 0 && limit < shown {
		shown = limit
	}

	fmt.Fprintf(w, "%s %s\n", colorInfo(prefixInfo), colorBold(fmt.Sprintf("%d pages in document order", len(sm.Pages))))
	for _, p := range sm.Pages[:shown] {
		fmt.Fprintf(w, "%4d  %-10s %s\n", p.Index, p.Category, p.URL)
	}
	if rest := len(sm.Pages) - shown; rest > 0 {
		fmt.Fprintln(w, colorDim(fmt.Sprintf("... %d more (use --limit 0 to list all)", rest)))
	}

	for _, f := range sm.Failed {
		fmt.Fprintf(w, "%s links not extracted from %s: %v\n", colorWarn(prefixSkip), f.URL, f.Err)
	}
	if sm.Capped {
		fmt.Fprintf(w, "%s page limit reached, %d pages left out:\n", colorWarn(prefixSkip), len(sm.Refused))
		for _, u := range sm.Refused {
			fmt.Fprintf(w, "    %s\n", u)
		}
	}
}
