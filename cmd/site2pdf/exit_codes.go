package main

import (
	"context"
	"errors"
	"os"

	site2pdf "github.com/alnah/go-site2pdf"
	"github.com/alnah/go-site2pdf/internal/config"
	"github.com/alnah/go-site2pdf/internal/crawl"
	"github.com/alnah/go-site2pdf/internal/fileutil"
)

// Exit codes for the site2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
// A run that skipped some pages but merged the rest still exits 0.
const (
	ExitSuccess     = 0   // Document written
	ExitGeneral     = 1   // General/unexpected error, merge failure
	ExitUsage       = 2   // Invalid flags, config, or site description
	ExitIO          = 3   // File not found, permission denied, unwritable work dir
	ExitBrowser     = 4   // Chrome could not be started
	ExitNoArtifacts = 5   // Every page failed to render
	ExitInterrupted = 130 // SIGINT/SIGTERM
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	if errors.Is(err, site2pdf.ErrNoArtifacts) {
		return ExitNoArtifacts
	}

	// Browser errors (exit 4)
	if errors.Is(err, site2pdf.ErrBrowserConnect) ||
		errors.Is(err, site2pdf.ErrPageCreate) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrNotDirectory) ||
		errors.Is(err, site2pdf.ErrWritePartial) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, site2pdf.ErrInvalidSite) ||
		errors.Is(err, site2pdf.ErrInvalidPageSize) ||
		errors.Is(err, site2pdf.ErrInvalidMargin) ||
		errors.Is(err, crawl.ErrNoSeeds) {
		return ExitUsage
	}

	return ExitGeneral
}
