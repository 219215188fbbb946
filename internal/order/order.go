// Package order imposes the canonical document order on a set of crawled URLs.
//
// The order is a strict priority over category blocks:
//
//  1. chapters, in the configured sequence (rank = chapter index)
//  2. extras, in the configured seed order
//  3. each bucket in configuration order, lexicographic by path
//  4. everything else, lexicographic by path
//
// Ties inside a lexicographic block fall back to the full URL, so the result
// is independent of the order in which URLs were discovered.
package order

import (
	"net/url"
	"sort"
	"strings"

	"github.com/alnah/go-site2pdf/internal/urlscope"
)

// Category names for the fixed blocks.
const (
	CategoryChapter = "chapter"
	CategoryExtra   = "extra"
	CategoryOther   = "other"
)

// Bucket groups URLs whose path contains Match. Buckets are checked in order
// and a URL joins the first one that matches.
type Bucket struct {
	Name  string
	Match string
}

// Taxonomy describes the site structure used for ordering.
// Chapters and Extras may be given as paths ("/cap1.html") or absolute URLs;
// they are compared by path.
type Taxonomy struct {
	Chapters []string
	Extras   []string
	Buckets  []Bucket
}

// Entry is one URL placed in the document.
type Entry struct {
	URL      string
	Rank     int    // category key, lower ranks come first
	Category string // chapter, extra, a bucket name, or other
	Index    int    // 1-based position in the document
}

// DefaultBuckets returns the article and FAQ buckets.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Name: "articles", Match: "/artigos/"},
		{Name: "faq", Match: "/faq/"},
	}
}

// Order returns every distinct URL of visited exactly once, in canonical order,
// with Index assigned from 1.
func (t Taxonomy) Order(visited []string) []Entry {
	chapterPos := positions(t.Chapters)
	extraPos := positions(t.Extras)

	extraRank := len(t.Chapters)
	bucketBase := extraRank + 1
	otherRank := bucketBase + len(t.Buckets)

	type keyed struct {
		Entry
		path string
		pos  int // position inside the block for chapters and extras
	}

	seen := make(map[string]struct{}, len(visited))
	items := make([]keyed, 0, len(visited))

	for _, u := range visited {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		p := urlscope.Path(u)
		k := keyed{Entry: Entry{URL: u}, path: p}

		switch {
		case hasPos(chapterPos, p):
			k.Rank = chapterPos[p]
			k.Category = CategoryChapter
		case hasPos(extraPos, p):
			k.Rank = extraRank
			k.Category = CategoryExtra
			k.pos = extraPos[p]
		default:
			k.Rank = otherRank
			k.Category = CategoryOther
			for i, b := range t.Buckets {
				if b.Match != "" && strings.Contains(p, b.Match) {
					k.Rank = bucketBase + i
					k.Category = b.Name
					break
				}
			}
		}
		items = append(items, k)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.URL < b.URL
	})

	out := make([]Entry, len(items))
	for i, k := range items {
		k.Index = i + 1
		out[i] = k.Entry
	}
	return out
}

func hasPos(m map[string]int, p string) bool {
	_, ok := m[p]
	return ok
}

// positions maps each identifier's path to its first position.
func positions(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		p := identifierPath(id)
		if _, dup := m[p]; !dup {
			m[p] = i
		}
	}
	return m
}

// identifierPath reduces a chapter or extra identifier to a path.
func identifierPath(id string) string {
	id = strings.TrimSpace(id)
	u, err := url.Parse(id)
	if err != nil {
		return id
	}
	if u.Path == "" {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") {
		return "/" + u.Path
	}
	return u.Path
}
