// Package site2pdf turns a documentation website into one ordered PDF using
// headless Chrome.
//
// # Quick Start
//
// Describe the site, build a pipeline, and close it when done:
//
//	p, err := site2pdf.NewPipeline(site2pdf.Site{
//	    Domain:   "engsoftmoderna.info",
//	    BaseURL:  "https://engsoftmoderna.info",
//	    Chapters: []string{"/cap0.html", "/cap1.html"},
//	    Extras:   []string{"/"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	report, err := p.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Merge.Output, len(report.Skipped()), "skipped")
//
// # Pipeline
//
// A build runs these stages:
//
//  1. Breadth-first crawl from the chapters and extras, restricted to one
//     host and to page-like URLs (colly + goquery)
//  2. Canonical ordering: chapters, extras, configured buckets, the rest
//  3. One partial PDF per page via headless Chrome (go-rod), with retries
//     for transient load failures
//  4. Merge of the partial PDFs in document order (pdfcpu), with an outline
//     and an optional contents page
//
// A page that cannot be fetched or rendered is logged and skipped; the run
// only fails when nothing could be rendered (ErrNoArtifacts) or the merge
// fails (ErrMerge).
//
// Map runs the first two stages only, which is useful to preview the order.
//
// # Configuration
//
// Use functional options to customize the pipeline:
//
//	p, err := site2pdf.NewPipeline(site,
//	    site2pdf.WithWorkers(4),
//	    site2pdf.WithTimeout(time.Minute),
//	    site2pdf.WithOutput("book.pdf"),
//	    site2pdf.WithContentsPage(true, ""),
//	)
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library downloads a managed
// Chromium on first run (~/.cache/rod/browser/) when none is found.
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 (or
// WithNoSandbox) to disable the Chrome sandbox. Use ROD_BROWSER_BIN (or
// WithBrowserBin) to select a Chrome binary.
package site2pdf
