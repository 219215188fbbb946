package main

import (
	"io"
	"os"

	site2pdf "github.com/alnah/go-site2pdf"
	"github.com/alnah/go-site2pdf/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config // used when no config file is named

	// Options are appended after the ones derived from the configuration.
	Options []site2pdf.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	cfg := config.DefaultConfig()
	cfg.Crawl.UserAgent = config.DefaultUserAgent + "/" + Version
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: cfg,
	}
}
