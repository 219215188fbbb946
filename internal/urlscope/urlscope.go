// Package urlscope canonicalizes URLs and decides whether they belong to the
// crawled site. Every function here fails closed: a URL that cannot be made
// absolute, or that uses a scheme other than http/https, is out of scope.
package urlscope

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

// Sentinel errors for normalization.
var (
	ErrEmptyURL          = errors.New("empty URL")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrNotAbsolute       = errors.New("URL is not absolute")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// DefaultExcludedExtensions lists path extensions that never hold an HTML page.
var DefaultExcludedExtensions = []string{
	// images
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".bmp",
	// styles and scripts
	".css", ".js", ".mjs", ".map",
	// fonts
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	// media
	".mp4", ".webm", ".mp3", ".wav", ".ogg",
	// archives
	".zip", ".tar", ".gz", ".tgz", ".rar", ".7z",
	// documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	// data
	".xml", ".json", ".txt", ".csv",
}

// Normalize resolves rawURL against baseURL and returns its canonical form.
// The fragment and query are dropped, scheme and host are lower-cased, default
// ports and user info are removed and an empty path becomes "/". Path case is
// preserved. baseURL may be empty when rawURL is already absolute.
func Normalize(rawURL, baseURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if baseURL != "" {
		base, err := url.Parse(strings.TrimSpace(baseURL))
		if err != nil {
			return "", fmt.Errorf("%w: base %q: %v", ErrInvalidURL, baseURL, err)
		}
		ref = base.ResolveReference(ref)
	}

	scheme := strings.ToLower(ref.Scheme)
	if scheme == "" || ref.Host == "" {
		if scheme != "" && scheme != "http" && scheme != "https" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
		}
		return "", fmt.Errorf("%w: %s", ErrNotAbsolute, rawURL)
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	u := &url.URL{
		Scheme:  scheme,
		Host:    canonicalHost(ref.Host, scheme),
		Path:    ref.Path,
		RawPath: ref.RawPath,
	}
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u.String(), nil
}

// canonicalHost lower-cases the host and drops the scheme's default port.
func canonicalHost(host, scheme string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

// Scope holds the crawl boundary: one exact host and a set of excluded
// path extensions.
type Scope struct {
	Domain   string
	Excluded map[string]bool
}

// NewScope returns a Scope for domain with the default exclusion list plus
// any extra extensions. Extensions are matched case-insensitively and may be
// given with or without the leading dot.
func NewScope(domain string, extraExcluded ...string) *Scope {
	s := &Scope{
		Domain:   strings.ToLower(strings.TrimSpace(domain)),
		Excluded: make(map[string]bool, len(DefaultExcludedExtensions)+len(extraExcluded)),
	}
	for _, ext := range DefaultExcludedExtensions {
		s.Excluded[ext] = true
	}
	for _, ext := range extraExcluded {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Excluded[ext] = true
	}
	return s
}

// InScope reports whether u is an http(s) URL on exactly the scope's host
// whose path does not end with an excluded extension.
func (s *Scope) InScope(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return false
	}

	if parsed.Hostname() == "" || !strings.EqualFold(parsed.Hostname(), s.Domain) {
		return false
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	return !s.Excluded[ext]
}

// Resolve normalizes rawURL against baseURL and checks it against the scope.
// It returns the canonical URL and true only when both steps succeed.
func (s *Scope) Resolve(rawURL, baseURL string) (string, bool) {
	u, err := Normalize(rawURL, baseURL)
	if err != nil {
		return "", false
	}
	if !s.InScope(u) {
		return "", false
	}
	return u, true
}

// Path returns the path of u, or "/" when u has none or cannot be parsed.
func Path(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}
