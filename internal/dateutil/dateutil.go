// Package dateutil formats dates with human-friendly layouts such as
// "DD/MM/YYYY", or a named preset.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLayout indicates a layout that cannot be translated.
var ErrInvalidLayout = errors.New("invalid date layout")

// MaxLayoutLength bounds user-supplied layouts.
const MaxLayoutLength = 50

// DefaultLayout is used for an empty layout.
const DefaultLayout = "iso"

// Presets are named shortcuts accepted wherever a layout is.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "D MMMM YYYY",
}

// tokens are matched longest first.
var tokens = [...]struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// GoLayout translates layout, or the preset it names, to a Go time layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D. Text in brackets is literal:
// "[Gerado em] DD/MM/YYYY". Other characters are copied as they are.
func GoLayout(layout string) (string, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	if preset, ok := Presets[strings.ToLower(layout)]; ok {
		layout = preset
	}
	if len(layout) > MaxLayoutLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidLayout, MaxLayoutLength)
	}

	var b strings.Builder
	rest := layout
	for rest != "" {
		if rest[0] == '[' {
			literal, after, found := strings.Cut(rest[1:], "]")
			if !found {
				return "", fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidLayout, layout)
			}
			b.WriteString(literal)
			rest = after
			continue
		}
		rest = translateToken(&b, rest)
	}
	return b.String(), nil
}

// translateToken writes the Go form of the token at the start of s, or its
// first byte, and returns the remainder.
func translateToken(b *strings.Builder, s string) string {
	for _, t := range tokens {
		if strings.HasPrefix(s, t.token) {
			b.WriteString(t.goFmt)
			return s[len(t.token):]
		}
	}
	b.WriteByte(s[0])
	return s[1:]
}

// Format renders t with layout (see GoLayout).
func Format(t time.Time, layout string) (string, error) {
	goLayout, err := GoLayout(layout)
	if err != nil {
		return "", err
	}
	return t.Format(goLayout), nil
}
