package site2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// ---------------------------------------------------------------------------
// PDF fixtures
// ---------------------------------------------------------------------------

// makePDF returns a real PDF with the given number of labelled pages.
func makePDF(t *testing.T, pages int, label string) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("%s page %d", label, i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// writePDF writes a fixture PDF into dir and returns its path.
func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, makePDF(t, pages, name), 0o600); err != nil {
		t.Fatalf("writing fixture PDF: %v", err)
	}
	return path
}

// fakePDF is enough for code paths that never parse the document.
var fakePDF = []byte("%PDF-1.4 fake pdf content")

// ---------------------------------------------------------------------------
// Renderer mocks
// ---------------------------------------------------------------------------

// renderRecorder is shared by every renderer a factory creates.
type renderRecorder struct {
	mu       sync.Mutex
	calls    map[string]int
	order    []string
	created  int
	closed   int
	result   []byte
	failures map[string]error // every attempt fails
	flaky    map[string]int   // first n attempts fail with ErrPageLoad
	hook     func(url string) // runs before each render
	closeErr error
}

func newRenderRecorder() *renderRecorder {
	return &renderRecorder{
		calls:    make(map[string]int),
		result:   fakePDF,
		failures: make(map[string]error),
		flaky:    make(map[string]int),
	}
}

func (r *renderRecorder) factory() RendererFactory {
	return func() Renderer {
		r.mu.Lock()
		r.created++
		r.mu.Unlock()
		return &mockRenderer{rec: r}
	}
}

func (r *renderRecorder) callCount(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[url]
}

// mockRenderer implements Renderer for testing.
type mockRenderer struct {
	rec *renderRecorder
}

func (m *mockRenderer) Render(ctx context.Context, url string, _ *PDFOptions) ([]byte, error) {
	if m.rec.hook != nil {
		m.rec.hook(url)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := m.rec
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[url]++
	r.order = append(r.order, url)
	if err, ok := r.failures[url]; ok {
		return nil, err
	}
	if r.flaky[url] >= r.calls[url] {
		return nil, fmt.Errorf("%w: %s: timeout", ErrPageLoad, url)
	}
	return r.result, nil
}

func (m *mockRenderer) Close() error {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.closed++
	return m.rec.closeErr
}

// ---------------------------------------------------------------------------
// Merger mocks
// ---------------------------------------------------------------------------

// mockMerger implements Merger without parsing PDFs.
type mockMerger struct {
	mu       sync.Mutex
	inputs   []string
	output   string
	err      error
	pages    map[string]int // by base name, default 1
	countErr error
}

func (m *mockMerger) Merge(ctx context.Context, inputs []string, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append([]string(nil), inputs...)
	m.output = output
	if m.err != nil {
		return m.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(output, []byte("%PDF-1.4 merged"), 0o600)
}

func (m *mockMerger) PageCount(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}
	if n, ok := m.pages[filepath.Base(path)]; ok {
		return n, nil
	}
	if m.output != "" && path == m.output {
		return len(m.inputs), nil
	}
	return 1, nil
}

// outlineMerger adds Outliner to mockMerger.
type outlineMerger struct {
	mockMerger
	bookmarks []Bookmark
	path      string
	outErr    error
}

func (m *outlineMerger) AddOutline(_ context.Context, path string, bookmarks []Bookmark) error {
	m.path = path
	m.bookmarks = append([]Bookmark(nil), bookmarks...)
	return m.outErr
}

var errBrowserCrashed = errors.New("browser crashed")

// ---------------------------------------------------------------------------
// Link extractor mock
// ---------------------------------------------------------------------------

// siteGraph implements LinkExtractor over an in-memory link graph.
type siteGraph struct {
	mu    sync.Mutex
	links map[string][]string
	fail  map[string]error
	calls []string
}

func (g *siteGraph) ExtractLinks(ctx context.Context, pageURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, pageURL)
	if err, ok := g.fail[pageURL]; ok {
		return nil, err
	}
	return g.links[pageURL], nil
}
