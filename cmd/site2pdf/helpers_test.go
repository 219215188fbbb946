package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	site2pdf "github.com/alnah/go-site2pdf"
	"github.com/alnah/go-site2pdf/internal/config"
)

const testBase = "https://engsoftmoderna.info"

// fakeSite implements site2pdf.LinkExtractor over a fixed link graph.
type fakeSite map[string][]string

func (f fakeSite) ExtractLinks(ctx context.Context, pageURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f[pageURL], nil
}

// fakeRenderer fails for the URLs in fail and returns a stub PDF otherwise.
type fakeRenderer struct {
	fail map[string]error
}

func (r *fakeRenderer) Render(ctx context.Context, url string, _ *site2pdf.PDFOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := r.fail[url]; ok {
		return nil, err
	}
	return []byte("%PDF-1.4 stub"), nil
}

func (r *fakeRenderer) Close() error { return nil }

// fakeMerger writes a stub document and counts one page per file.
type fakeMerger struct {
	mu     sync.Mutex
	inputs []string
}

func (m *fakeMerger) Merge(_ context.Context, inputs []string, output string) error {
	m.mu.Lock()
	m.inputs = append([]string(nil), inputs...)
	m.mu.Unlock()
	return os.WriteFile(output, []byte("%PDF-1.4 merged"), 0o600)
}

func (m *fakeMerger) PageCount(string) (int, error) { return 1, nil }

// testHarness is an Environment wired to fakes, with captured output.
type testHarness struct {
	env    *Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
	merger *fakeMerger
}

// newHarness builds a three-page site; pages in fail cannot be rendered.
func newHarness(t *testing.T, fail map[string]error) *testHarness {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.Chapters = []string{"/cap0.html", "/cap1.html"}
	cfg.Site.Extras = nil
	cfg.Render.Retries = 0
	cfg.Output.WorkDir = filepath.Join(dir, "pages")
	cfg.Output.File = filepath.Join(dir, "book.pdf")

	site := fakeSite{
		testBase + "/cap0.html": {"cap1.html", "/faq/git-faq.html"},
		testBase + "/cap1.html": {"/cap0.html"},
	}
	m := &fakeMerger{}
	h := &testHarness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    dir,
		merger: m,
	}
	h.env = &Environment{
		Stdout: h.stdout,
		Stderr: h.stderr,
		Config: cfg,
		Options: []site2pdf.Option{
			site2pdf.WithLinkExtractor(site),
			site2pdf.WithRendererFactory(func() site2pdf.Renderer { return &fakeRenderer{fail: fail} }),
			site2pdf.WithMerger(m),
		},
	}
	return h
}

func (h *testHarness) run(args ...string) int {
	return runMain(append([]string{"site2pdf"}, args...), h.env)
}

func pageLoadErr(url string) error {
	return fmt.Errorf("%w: %s: timeout", site2pdf.ErrPageLoad, url)
}
