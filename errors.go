package site2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrInvalidSite = errors.New("invalid site definition")

	// Render errors. A page failing with one of these is skipped.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWritePartial   = errors.New("failed to write partial PDF")

	// Page settings validation errors.
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidMargin   = errors.New("invalid margin")

	// Merge errors. Both abort the run.
	ErrNoArtifacts = errors.New("no PDF artifacts to merge")
	ErrMerge       = errors.New("PDF merge failed")

	ErrContentsPage = errors.New("contents page generation failed")
	ErrPoolClosed   = errors.New("renderer pool is closed")
)
