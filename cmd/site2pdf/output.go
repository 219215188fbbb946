package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	site2pdf "github.com/alnah/go-site2pdf"
	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/hints"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorDim     = color.New(color.Faint).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

// Output prefixes
const (
	prefixDone  = "✓"
	prefixSkip  = "⚠"
	prefixError = "✗"
	prefixInfo  = "ℹ"
)

// newLogger builds the stderr logger: text by default, JSON with --log-json.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if f.logJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// reporter prints user-facing progress. Pipeline progress callbacks are
// serialized, so no locking is needed.
type reporter struct {
	w     io.Writer
	quiet bool
}

func (r *reporter) infof(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", colorInfo(prefixInfo), fmt.Sprintf(format, args...))
}

// page reports one rendered or skipped page.
func (r *reporter) page(a site2pdf.Artifact) {
	if r.quiet {
		return
	}
	if a.OK() {
		fmt.Fprintf(r.w, "%s %4d %s %s\n", colorSuccess(prefixDone), a.Page.Index, a.Page.URL,
			colorDim(fmt.Sprintf("(%d pages, %s)", a.Pages, a.Duration.Round(time.Millisecond))))
		return
	}
	fmt.Fprintf(r.w, "%s %4d %s %s\n", colorWarn(prefixSkip), a.Page.Index, a.Page.URL, colorDim(a.Err.Error()))
}

// summary reports the outcome of a build. Skipped pages are always listed.
func (r *reporter) summary(rep *site2pdf.Report) {
	if rep == nil || rep.Map == nil {
		return
	}
	r.infof("crawled %d pages, %d without extractable links", rep.Map.Visited, len(rep.Map.Failed))
	if rep.Map.Capped {
		fmt.Fprintf(r.w, "%s page limit reached, %d pages left out (see manifest)\n", colorWarn(prefixSkip), len(rep.Map.Refused))
	}

	skipped := rep.Skipped()
	if len(skipped) > 0 {
		fmt.Fprintf(r.w, "%s %s\n", colorWarn(prefixSkip), colorBold(fmt.Sprintf("%d pages skipped:", len(skipped))))
		timedOut := false
		for _, a := range skipped {
			fmt.Fprintf(r.w, "    %s: %v\n", a.Page.URL, a.Err)
			if errors.Is(a.Err, context.DeadlineExceeded) || errors.Is(a.Err, site2pdf.ErrPageLoad) {
				timedOut = true
			}
		}
		if timedOut {
			fmt.Fprintln(r.w, colorDim(hints.ForTimeout()))
		}
	}

	if rep.Merge != nil && !r.quiet {
		fmt.Fprintf(r.w, "%s wrote %s %s\n", colorSuccess(prefixDone), colorBold(rep.Merge.Output),
			colorDim(fmt.Sprintf("(%d of %d pages, %d PDF pages, %s)",
				rep.Merge.Files, len(rep.Artifacts), rep.Merge.Pages, rep.Duration().Round(time.Second))))
	}
	if rep.Manifest != "" {
		r.infof("manifest: %s", rep.Manifest)
	}
}

// printError writes err to w with the error prefix.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", colorError(prefixError), err)
}

// withHint appends an actionable hint to err when one applies.
func withHint(err error, rep *site2pdf.Report) error {
	if err == nil {
		return nil
	}

	var hint string
	switch {
	case errors.Is(err, site2pdf.ErrNoArtifacts):
		hint = hints.ForNoArtifacts()
		if rep != nil && allSkipped(rep, site2pdf.ErrBrowserConnect) {
			hint = hints.ForBrowserConnect()
		}
	case errors.Is(err, site2pdf.ErrBrowserConnect):
		hint = hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		hint = hints.ForTimeout()
	case errors.Is(err, fileutil.ErrNotDirectory), errors.Is(err, os.ErrPermission):
		hint = hints.ForOutputDirectory()
	}

	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}

// allSkipped reports whether every artifact failed with target.
func allSkipped(rep *site2pdf.Report, target error) bool {
	if len(rep.Artifacts) == 0 {
		return false
	}
	for _, a := range rep.Artifacts {
		if !errors.Is(a.Err, target) {
			return false
		}
	}
	return true
}
