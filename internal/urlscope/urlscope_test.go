package urlscope_test

// Notes:
// - Normalize: we cover fragment/query stripping, relative resolution, case
//   folding of scheme and host, default port removal and rejection of
//   non-http schemes. Percent-encoding edge cases are left to net/url.
// - InScope: host comparison ignores the port, so httptest servers on
//   127.0.0.1 are in scope for Domain "127.0.0.1".
// These are acceptable gaps: we test observable behavior, not net/url internals.

import (
	"errors"
	"testing"

	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// ---------------------------------------------------------------------------
// TestNormalize - Canonical form
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	t.Parallel()

	const base = "https://engsoftmoderna.info/cap1.html"

	tests := []struct {
		name    string
		raw     string
		base    string
		want    string
		wantErr error
	}{
		{"absolute unchanged", "https://engsoftmoderna.info/cap2.html", "", "https://engsoftmoderna.info/cap2.html", nil},
		{"fragment stripped", "https://engsoftmoderna.info/cap2.html#sec-1", "", "https://engsoftmoderna.info/cap2.html", nil},
		{"query stripped", "https://engsoftmoderna.info/cap2.html?x=1&y=2", "", "https://engsoftmoderna.info/cap2.html", nil},
		{"bare question mark stripped", "https://engsoftmoderna.info/cap2.html?", "", "https://engsoftmoderna.info/cap2.html", nil},
		{"relative sibling", "cap3.html", base, "https://engsoftmoderna.info/cap3.html", nil},
		{"relative parent", "../faq/git-faq.html", "https://engsoftmoderna.info/artigos/artigos.html", "https://engsoftmoderna.info/faq/git-faq.html", nil},
		{"root relative", "/praticas.html", base, "https://engsoftmoderna.info/praticas.html", nil},
		{"protocol relative", "//engsoftmoderna.info/cap4.html", base, "https://engsoftmoderna.info/cap4.html", nil},
		{"fragment only resolves to base", "#exercicios", base, "https://engsoftmoderna.info/cap1.html", nil},
		{"scheme and host lower-cased", "HTTPS://EngSoftModerna.INFO/Cap5.html", "", "https://engsoftmoderna.info/Cap5.html", nil},
		{"path case preserved", "/CapAp.html", base, "https://engsoftmoderna.info/CapAp.html", nil},
		{"empty path becomes slash", "https://engsoftmoderna.info", "", "https://engsoftmoderna.info/", nil},
		{"default https port dropped", "https://engsoftmoderna.info:443/cap0.html", "", "https://engsoftmoderna.info/cap0.html", nil},
		{"default http port dropped", "http://engsoftmoderna.info:80/cap0.html", "", "http://engsoftmoderna.info/cap0.html", nil},
		{"other port kept", "http://localhost:8080/a.html", "", "http://localhost:8080/a.html", nil},
		{"user info dropped", "https://user:pw@engsoftmoderna.info/cap0.html", "", "https://engsoftmoderna.info/cap0.html", nil},
		{"surrounding space trimmed", "  /cap6.html  ", base, "https://engsoftmoderna.info/cap6.html", nil},
		{"empty", "", base, "", urlscope.ErrEmptyURL},
		{"relative without base", "cap3.html", "", "", urlscope.ErrNotAbsolute},
		{"mailto rejected", "mailto:someone@example.com", base, "", urlscope.ErrUnsupportedScheme},
		{"javascript rejected", "javascript:void(0)", base, "", urlscope.ErrUnsupportedScheme},
		{"ftp rejected", "ftp://engsoftmoderna.info/file", "", "", urlscope.ErrUnsupportedScheme},
		{"invalid rejected", "http://[::1", "", "", urlscope.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := urlscope.Normalize(tt.raw, tt.base)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Normalize(%q, %q) error = %v, want %v", tt.raw, tt.base, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q, %q) unexpected error: %v", tt.raw, tt.base, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.base, got, tt.want)
			}
		})
	}
}

func TestNormalize_FragmentAndQueryVariantsCollapse(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://engsoftmoderna.info/cap7.html",
		"https://engsoftmoderna.info/cap7.html#top",
		"https://engsoftmoderna.info/cap7.html?utm_source=x",
		"https://engsoftmoderna.info/cap7.html?a=1#b",
		"HTTPS://ENGSOFTMODERNA.INFO/cap7.html#",
	}

	want, err := urlscope.Normalize(variants[0], "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range variants[1:] {
		got, err := urlscope.Normalize(v, "")
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", v, err)
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestScope_InScope - Domain and extension filter
// ---------------------------------------------------------------------------

func TestScope_InScope(t *testing.T) {
	t.Parallel()

	scope := urlscope.NewScope("engsoftmoderna.info")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"chapter page", "https://engsoftmoderna.info/cap1.html", true},
		{"root", "https://engsoftmoderna.info/", true},
		{"directory path", "https://engsoftmoderna.info/artigos/", true},
		{"http scheme", "http://engsoftmoderna.info/cap1.html", true},
		{"host case-insensitive", "https://EngSoftModerna.info/cap1.html", true},
		{"other domain", "https://example.com/cap1.html", false},
		{"subdomain", "https://www.engsoftmoderna.info/cap1.html", false},
		{"suffix domain", "https://notengsoftmoderna.info/cap1.html", false},
		{"png", "https://engsoftmoderna.info/figs/cap1/fig1.png", false},
		{"upper-case JPG", "https://engsoftmoderna.info/figs/photo.JPG", false},
		{"stylesheet", "https://engsoftmoderna.info/css/style.css", false},
		{"script", "https://engsoftmoderna.info/js/main.js", false},
		{"pdf", "https://engsoftmoderna.info/book.pdf", false},
		{"zip", "https://engsoftmoderna.info/code.zip", false},
		{"video", "https://engsoftmoderna.info/intro.mp4", false},
		{"favicon", "https://engsoftmoderna.info/favicon.ico", false},
		{"mailto", "mailto:a@engsoftmoderna.info", false},
		{"ftp", "ftp://engsoftmoderna.info/cap1.html", false},
		{"unparseable", "http://[::1", false},
		{"relative", "/cap1.html", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope.InScope(tt.url); got != tt.want {
				t.Errorf("InScope(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewScope_ExtraExtensions(t *testing.T) {
	t.Parallel()

	scope := urlscope.NewScope("  EngSoftModerna.info ", "epub", ".RSS", "")

	if scope.Domain != "engsoftmoderna.info" {
		t.Errorf("Domain = %q, want %q", scope.Domain, "engsoftmoderna.info")
	}
	if scope.InScope("https://engsoftmoderna.info/book.epub") {
		t.Error("expected .epub to be excluded")
	}
	if scope.InScope("https://engsoftmoderna.info/feed.rss") {
		t.Error("expected .rss to be excluded")
	}
	if !scope.InScope("https://engsoftmoderna.info/cap1.html") {
		t.Error("expected .html to stay in scope")
	}
}

// ---------------------------------------------------------------------------
// TestScope_Resolve - Normalize then filter
// ---------------------------------------------------------------------------

func TestScope_Resolve(t *testing.T) {
	t.Parallel()

	scope := urlscope.NewScope("engsoftmoderna.info")
	const base = "https://engsoftmoderna.info/cap2.html"

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"relative in scope", "cap3.html#x", "https://engsoftmoderna.info/cap3.html", true},
		{"external", "https://github.com/engsoftmoderna", "", false},
		{"image", "figs/cap2/a.png", "", false},
		{"mailto", "mailto:x@y.z", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := scope.Resolve(tt.raw, base)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPath
// ---------------------------------------------------------------------------

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://engsoftmoderna.info/faq/git-faq.html", "/faq/git-faq.html"},
		{"https://engsoftmoderna.info/", "/"},
		{"https://engsoftmoderna.info", "/"},
		{"http://[::1", "/"},
	}

	for _, tt := range tests {
		if got := urlscope.Path(tt.in); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
