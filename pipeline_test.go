package site2pdf

// Notes:
// - NewPipeline defaults (colly extractor, rod renderer, pdfcpu merger) are
//   only constructed here, never driven: that needs network and Chrome.
// These are acceptable gaps: the stages are covered through their mocks.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-site2pdf/internal/manifest"
)

func testSiteConfig() Site {
	return Site{
		Domain:   "engsoftmoderna.info",
		BaseURL:  testSite + "/",
		Chapters: []string{"/cap0.html", "/cap1.html"},
		Extras:   []string{"/faq.html"},
		Buckets:  []Bucket{{Name: "articles", Match: "/artigos/"}},
	}
}

// testGraph links the chapters to an article, a foreign host and an image.
// The article's links cannot be extracted.
func testGraph() *siteGraph {
	return &siteGraph{
		links: map[string][]string{
			testSite + "/cap0.html": {"cap1.html", "/artigos/z.html", "https://github.com/x", "/img/logo.png"},
			testSite + "/cap1.html": {"/cap0.html#top", "/artigos/a.html"},
			testSite + "/faq.html":  {"/"},
		},
		fail: map[string]error{
			testSite + "/artigos/z.html": errors.New("HTTP 503"),
		},
	}
}

// newTestPipeline wires mocks and temp paths around testSiteConfig.
func newTestPipeline(t *testing.T, rec *renderRecorder, m Merger, opts ...Option) (*Pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	base := []Option{
		WithLinkExtractor(testGraph()),
		WithRendererFactory(rec.factory()),
		WithMerger(m),
		WithWorkDir(filepath.Join(dir, "pages")),
		WithOutput(filepath.Join(dir, "book.pdf")),
		WithRetryDelays(noRetry...),
	}
	p, err := NewPipeline(testSiteConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, dir
}

// ---------------------------------------------------------------------------
// TestSite - Seeds and validation
// ---------------------------------------------------------------------------

func TestSite_Seeds(t *testing.T) {
	t.Parallel()

	s := Site{
		BaseURL:  testSite + "/",
		Chapters: []string{"/cap0.html", "cap1.html"},
		Extras:   []string{"https://engsoftmoderna.info/faq.html", "mailto:x@y.z"},
	}
	want := []string{
		testSite + "/cap0.html",
		testSite + "/cap1.html",
		testSite + "/faq.html",
	}
	if got := s.Seeds(); !slices.Equal(got, want) {
		t.Errorf("Seeds() = %v, want %v", got, want)
	}
}

func TestSite_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Site)
		wantErr bool
	}{
		{"valid", func(*Site) {}, false},
		{"empty domain", func(s *Site) { s.Domain = " " }, true},
		{"relative base", func(s *Site) { s.BaseURL = "/docs" }, true},
		{"base on other host", func(s *Site) { s.BaseURL = "https://example.com/" }, true},
		{"no seeds", func(s *Site) { s.Chapters, s.Extras = nil, nil }, true},
		{"seeds off site", func(s *Site) {
			s.Chapters = []string{"https://example.com/a.html"}
			s.Extras = nil
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := testSiteConfig()
			tt.modify(&s)
			err := s.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidSite) {
				t.Errorf("Validate() = %v, want ErrInvalidSite", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewPipeline
// ---------------------------------------------------------------------------

func TestNewPipeline(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		p, err := NewPipeline(testSiteConfig())
		if err != nil {
			t.Fatalf("NewPipeline() error: %v", err)
		}
		defer func() { _ = p.Close() }()

		if p.RunID() == "" {
			t.Error("RunID() is empty")
		}
		if p.Workers() != 1 {
			t.Errorf("Workers() = %d, want 1", p.Workers())
		}
		if p.extractor == nil || p.factory == nil || p.merger == nil {
			t.Error("default collaborators not wired")
		}
	})

	t.Run("invalid site", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipeline(Site{})
		if !errors.Is(err, ErrInvalidSite) {
			t.Errorf("error = %v, want ErrInvalidSite", err)
		}
	})

	t.Run("invalid PDF options", func(t *testing.T) {
		t.Parallel()

		_, err := NewPipeline(testSiteConfig(), WithPDFOptions(&PDFOptions{PageSize: "tabloid"}))
		if !errors.Is(err, ErrInvalidPageSize) {
			t.Errorf("error = %v, want ErrInvalidPageSize", err)
		}
	})

	t.Run("workers", func(t *testing.T) {
		t.Parallel()

		p, err := NewPipeline(testSiteConfig(), WithWorkers(3))
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = p.Close() }()
		if p.Workers() != 3 {
			t.Errorf("Workers() = %d, want 3", p.Workers())
		}
	})

	t.Run("distinct run IDs", func(t *testing.T) {
		t.Parallel()

		a, _ := NewPipeline(testSiteConfig())
		b, _ := NewPipeline(testSiteConfig())
		if a.RunID() == b.RunID() {
			t.Error("two pipelines share a run ID")
		}
	})
}

func TestOptions_Panics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func()
	}{
		{"zero timeout", func() { WithTimeout(0) }},
		{"negative workers", func() { WithWorkers(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_Map - Crawl and canonical order
// ---------------------------------------------------------------------------

func TestPipeline_Map(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, newRenderRecorder(), &mockMerger{})

	sm, err := p.Map(context.Background())
	if err != nil {
		t.Fatalf("Map() error: %v", err)
	}

	wantURLs := []string{
		testSite + "/cap0.html",
		testSite + "/cap1.html",
		testSite + "/faq.html",
		testSite + "/artigos/a.html",
		testSite + "/artigos/z.html",
		testSite + "/",
	}
	wantCats := []string{"chapter", "chapter", "extra", "articles", "articles", "other"}

	if len(sm.Pages) != len(wantURLs) {
		t.Fatalf("Map() returned %d pages, want %d: %+v", len(sm.Pages), len(wantURLs), sm.Pages)
	}
	for i, pg := range sm.Pages {
		if pg.URL != wantURLs[i] || pg.Category != wantCats[i] || pg.Index != i+1 {
			t.Errorf("page %d = %+v, want %s (%s)", i, pg, wantURLs[i], wantCats[i])
		}
	}
	if sm.Visited != len(wantURLs) {
		t.Errorf("Visited = %d, want %d", sm.Visited, len(wantURLs))
	}
	if len(sm.Failed) != 1 || sm.Failed[0].URL != testSite+"/artigos/z.html" {
		t.Errorf("Failed = %+v, want the unreachable article", sm.Failed)
	}
	if sm.Capped {
		t.Error("Capped = true without a page limit hit")
	}
}

func TestPipeline_Map_Capped(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, newRenderRecorder(), &mockMerger{}, WithMaxPages(4))

	sm, err := p.Map(context.Background())
	if err != nil {
		t.Fatalf("Map() error: %v", err)
	}
	if !sm.Capped {
		t.Error("Capped = false, want true")
	}
	if len(sm.Pages) != 4 {
		t.Errorf("len(Pages) = %d, want 4", len(sm.Pages))
	}
	// Six pages are reachable; the two not admitted are reported.
	if len(sm.Refused) != 2 {
		t.Fatalf("Refused = %v, want 2 URLs", sm.Refused)
	}
	for _, pg := range sm.Pages {
		if slices.Contains(sm.Refused, pg.URL) {
			t.Errorf("%s is both mapped and refused", pg.URL)
		}
	}
}

func TestPipeline_Build_CappedManifest(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, newRenderRecorder(), &mockMerger{}, WithMaxPages(4))

	report, err := p.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	got, err := manifest.Load(report.Manifest)
	if err != nil {
		t.Fatalf("manifest.Load() error: %v", err)
	}
	if !slices.Equal(got.Refused, report.Map.Refused) || got.Totals.Refused != 2 {
		t.Errorf("manifest refused = %v (total %d), want %v", got.Refused, got.Totals.Refused, report.Map.Refused)
	}
}

func TestPipeline_Map_Canceled(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, newRenderRecorder(), &mockMerger{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sm, err := p.Map(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if sm == nil || len(sm.Pages) != 3 {
		t.Errorf("partial map = %+v, want the three seeds", sm)
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_Build - End to end with mocks
// ---------------------------------------------------------------------------

func TestPipeline_Build(t *testing.T) {
	t.Parallel()

	rec := newRenderRecorder()
	rec.failures[testSite+"/cap1.html"] = errBrowserCrashed
	m := &mockMerger{}

	var mu sync.Mutex
	var progress []int
	p, dir := newTestPipeline(t, rec, m, WithProgress(func(a Artifact) {
		mu.Lock()
		progress = append(progress, a.Page.Index)
		mu.Unlock()
	}))

	report, err := p.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if report.RunID != p.RunID() {
		t.Errorf("report.RunID = %q, want %q", report.RunID, p.RunID())
	}
	if len(report.Artifacts) != 6 {
		t.Fatalf("len(Artifacts) = %d, want 6", len(report.Artifacts))
	}
	if n := len(report.Rendered()); n != 5 {
		t.Errorf("Rendered() = %d, want 5", n)
	}
	if sk := report.Skipped(); len(sk) != 1 || sk[0].Page.URL != testSite+"/cap1.html" {
		t.Errorf("Skipped() = %+v, want cap1", sk)
	}
	if report.Finished.Before(report.Started) {
		t.Error("Finished before Started")
	}
	if len(progress) != 6 {
		t.Errorf("progress callback ran %d times, want 6", len(progress))
	}

	// Merge inputs follow document order and leave out the skipped page.
	want := make([]string, 0, 5)
	for _, a := range report.Artifacts {
		if a.OK() {
			want = append(want, a.Path)
		}
	}
	if !slices.Equal(m.inputs, want) {
		t.Errorf("merge inputs = %v, want %v", m.inputs, want)
	}
	if report.Merge == nil || report.Merge.Output != filepath.Join(dir, "book.pdf") {
		t.Errorf("Merge = %+v", report.Merge)
	}

	got, err := manifest.Load(report.Manifest)
	if err != nil {
		t.Fatalf("manifest.Load() error: %v", err)
	}
	if got.RunID != p.RunID() || got.Status != manifest.RunPartial {
		t.Errorf("manifest run = %s/%s, want %s/%s", got.RunID, got.Status, p.RunID(), manifest.RunPartial)
	}
	wantTotals := manifest.Totals{Visited: 6, Rendered: 5, Skipped: 1, CrawlFailures: 1, MergedPages: 5}
	if got.Totals != wantTotals {
		t.Errorf("manifest totals = %+v, want %+v", got.Totals, wantTotals)
	}
	if got.Pages[1].Status != manifest.StatusSkipped || got.Pages[1].Error == "" {
		t.Errorf("manifest page 2 = %+v, want skipped with error", got.Pages[1])
	}
}

func TestPipeline_Build_NothingRendered(t *testing.T) {
	t.Parallel()

	rec := newRenderRecorder()
	for _, path := range []string{"/", "/cap0.html", "/cap1.html", "/faq.html", "/artigos/a.html", "/artigos/z.html"} {
		rec.failures[testSite+path] = errBrowserCrashed
	}
	m := &mockMerger{}
	p, dir := newTestPipeline(t, rec, m)

	report, err := p.Build(context.Background())
	if !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("error = %v, want ErrNoArtifacts", err)
	}
	if report == nil || report.Merge != nil {
		t.Fatalf("report = %+v, want one without merge result", report)
	}
	if _, err := os.Stat(filepath.Join(dir, "book.pdf")); !os.IsNotExist(err) {
		t.Error("output file created although nothing was rendered")
	}

	got, err := manifest.Load(report.Manifest)
	if err != nil {
		t.Fatalf("manifest.Load() error: %v", err)
	}
	if got.Status != manifest.RunFailed || got.Totals.Rendered != 0 {
		t.Errorf("manifest = %s with %d rendered, want failed with 0", got.Status, got.Totals.Rendered)
	}
}

func TestPipeline_Build_ContentsPage(t *testing.T) {
	t.Parallel()

	m := &mockMerger{}
	p, dir := newTestPipeline(t, newRenderRecorder(), m, WithContentsPage(true, "Sumário"), WithManifest(false))

	report, err := p.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	contents := filepath.Join(dir, "pages", ContentsFile)
	if len(m.inputs) == 0 || m.inputs[0] != contents {
		t.Fatalf("first merge input = %v, want %s", m.inputs, contents)
	}
	data, err := os.ReadFile(contents)
	if err != nil {
		t.Fatalf("contents page missing: %v", err)
	}
	if !slices.Equal(data[:5], []byte("%PDF-")) {
		t.Errorf("contents page is not a PDF: %q", data[:5])
	}
	if report.Manifest != "" {
		t.Errorf("Manifest = %q, want none", report.Manifest)
	}
	if _, err := os.Stat(filepath.Join(dir, "pages", manifest.FileName)); !os.IsNotExist(err) {
		t.Error("manifest written although disabled")
	}
}

func TestPipeline_Build_ContentsPageBadDateFormat(t *testing.T) {
	t.Parallel()

	m := &mockMerger{}
	p, dir := newTestPipeline(t, newRenderRecorder(), m,
		WithContentsPage(true, ""), WithDateFormat("[DD/MM"), WithManifest(false))

	if _, err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, in := range m.inputs {
		if filepath.Base(in) == ContentsFile {
			t.Errorf("merge inputs include %s although the date layout is invalid", in)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "pages", ContentsFile)); !os.IsNotExist(err) {
		t.Error("contents page written although the date layout is invalid")
	}
}

func TestPipeline_Build_MergeFailure(t *testing.T) {
	t.Parallel()

	m := &mockMerger{err: errors.New("disk full")}
	p, _ := newTestPipeline(t, newRenderRecorder(), m)

	report, err := p.Build(context.Background())
	if !errors.Is(err, ErrMerge) {
		t.Fatalf("error = %v, want ErrMerge", err)
	}

	got, lerr := manifest.Load(report.Manifest)
	if lerr != nil {
		t.Fatalf("manifest.Load() error: %v", lerr)
	}
	if got.Status != manifest.RunFailed || got.Error == "" {
		t.Errorf("manifest = %s (%q), want failed with error", got.Status, got.Error)
	}
}

func TestPipeline_Build_Canceled(t *testing.T) {
	t.Parallel()

	rec := newRenderRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.hook = func(string) { cancel() }
	m := &mockMerger{}
	p, _ := newTestPipeline(t, rec, m)

	_, err := p.Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if m.inputs != nil {
		t.Error("merge ran after cancellation")
	}
}

func TestPipeline_Close(t *testing.T) {
	t.Parallel()

	rec := newRenderRecorder()
	p, _ := newTestPipeline(t, rec, &mockMerger{}, WithWorkers(2), WithTimeout(time.Minute))

	if _, err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.closed != rec.created {
		t.Errorf("closed %d of %d renderers", rec.closed, rec.created)
	}
}
