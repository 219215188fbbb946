package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-site2pdf/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // SITE2PDF_CONFIG: config file name or path
	Timeout    time.Duration // SITE2PDF_TIMEOUT: per-page render timeout
	Workers    int           // SITE2PDF_WORKERS: parallel browsers, -1 when unset
	WorkDir    string        // SITE2PDF_WORK_DIR: partial PDFs directory
	Output     string        // SITE2PDF_OUTPUT: final PDF path
	UserAgent  string        // SITE2PDF_USER_AGENT: crawler User-Agent
	MaxPages   int           // SITE2PDF_MAX_PAGES: crawl cap, -1 when unset
}

// knownEnvVars lists valid SITE2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"SITE2PDF_CONFIG":     true,
	"SITE2PDF_TIMEOUT":    true,
	"SITE2PDF_WORKERS":    true,
	"SITE2PDF_WORK_DIR":   true,
	"SITE2PDF_OUTPUT":     true,
	"SITE2PDF_USER_AGENT": true,
	"SITE2PDF_MAX_PAGES":  true,
	"SITE2PDF_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("SITE2PDF_CONFIG"),
		WorkDir:    os.Getenv("SITE2PDF_WORK_DIR"),
		Output:     os.Getenv("SITE2PDF_OUTPUT"),
		UserAgent:  os.Getenv("SITE2PDF_USER_AGENT"),
		Workers:    -1,
		MaxPages:   -1,
	}

	if timeout := os.Getenv("SITE2PDF_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := os.Getenv("SITE2PDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w >= 0 {
			cfg.Workers = w
		}
	}
	if maxPages := os.Getenv("SITE2PDF_MAX_PAGES"); maxPages != "" {
		if n, err := strconv.Atoi(maxPages); err == nil && n >= 0 {
			cfg.MaxPages = n
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized SITE2PDF_* variable.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SITE2PDF_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with the environment.
// CLI flags are applied afterwards by mergeFlags, so the precedence is
// flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout
	}
	if env.Workers >= 0 {
		cfg.Render.Workers = env.Workers
	}
	if env.WorkDir != "" {
		cfg.Output.WorkDir = env.WorkDir
	}
	if env.Output != "" {
		cfg.Output.File = env.Output
	}
	if env.UserAgent != "" {
		cfg.Crawl.UserAgent = env.UserAgent
	}
	if env.MaxPages >= 0 {
		cfg.Crawl.MaxPages = env.MaxPages
	}
}
