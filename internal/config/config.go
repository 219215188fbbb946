package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-site2pdf/internal/dateutil"
	"github.com/alnah/go-site2pdf/internal/fileutil"
	"github.com/alnah/go-site2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidConfig   = errors.New("invalid config")
)

// AppName names the per-user config directory.
const AppName = "go-site2pdf"

// Field length limits.
const (
	MaxDomainLength    = 253  // DNS limit
	MaxURLLength       = 2048 // Browser limit
	MaxPathLength      = 1024
	MaxBucketLength    = 50
	MaxUserAgentLength = 256
	MaxListLength      = 500 // chapters, extras, buckets
)

// Numeric bounds.
const (
	MaxWorkers  = 32
	MaxRetries  = 10
	MinMarginMM = 0.0
	MaxMarginMM = 50.0
)

// Defaults for engsoftmoderna.info.
const (
	DefaultDomain     = "engsoftmoderna.info"
	DefaultBaseURL    = "https://engsoftmoderna.info"
	DefaultWorkDir    = "esm_pdf_pages"
	DefaultOutputFile = "Engenharia_de_Software_Moderna_site_completo.pdf"
	DefaultMaxPages   = 1000
	DefaultUserAgent  = "go-site2pdf"
)

// Config holds all configuration for a site build.
type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Crawl  CrawlConfig  `yaml:"crawl"`
	Render RenderConfig `yaml:"render"`
	Output OutputConfig `yaml:"output"`
}

// SiteConfig describes the site and its page taxonomy.
type SiteConfig struct {
	Domain            string         `yaml:"domain"`
	BaseURL           string         `yaml:"baseURL"`
	Chapters          []string       `yaml:"chapters"` // ordered, paths or URLs
	Extras            []string       `yaml:"extras"`   // root pages after chapters
	Buckets           []BucketConfig `yaml:"buckets"`
	ExcludeExtensions []string       `yaml:"excludeExtensions"` // added to the built-in list
}

// BucketConfig groups pages whose path contains Match.
type BucketConfig struct {
	Name  string `yaml:"name"`
	Match string `yaml:"match"`
}

// CrawlConfig defines discovery options.
type CrawlConfig struct {
	MaxPages      int           `yaml:"maxPages"` // 0 = unlimited
	Delay         time.Duration `yaml:"delay"`    // pause between fetches
	Timeout       time.Duration `yaml:"timeout"`  // per fetch
	UserAgent     string        `yaml:"userAgent"`
	RespectRobots bool          `yaml:"respectRobots"`
}

// RenderConfig defines browser rendering options.
type RenderConfig struct {
	Timeout    time.Duration `yaml:"timeout"` // per page
	Workers    int           `yaml:"workers"` // 0 = auto
	Retries    int           `yaml:"retries"` // transient failures only
	PageSize   string        `yaml:"pageSize"`
	Margins    MarginsConfig `yaml:"margins"`
	BrowserBin string        `yaml:"browserBin"`
	NoSandbox  bool          `yaml:"noSandbox"`
}

// MarginsConfig holds page margins in millimetres.
type MarginsConfig struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// OutputConfig defines where artifacts go.
type OutputConfig struct {
	WorkDir      string `yaml:"workDir"`
	File         string `yaml:"file"`
	Outline      bool   `yaml:"outline"`
	Manifest     bool   `yaml:"manifest"`
	ContentsPage bool   `yaml:"contentsPage"`
	DateFormat   string `yaml:"dateFormat"` // contents page date, see dateutil
}

// DefaultChapters returns the chapter sequence of engsoftmoderna.info:
// cap0 through cap10, then the appendix.
func DefaultChapters() []string {
	chapters := make([]string, 0, 12)
	for i := 0; i <= 10; i++ {
		chapters = append(chapters, fmt.Sprintf("/cap%d.html", i))
	}
	return append(chapters, "/capAp.html")
}

// DefaultExtras returns the root pages crawled after the chapters.
func DefaultExtras() []string {
	return []string{
		"/",
		"/artigos/artigos.html",
		"/praticas.html",
		"/faq/testes-faq.html",
		"/faq/git-faq.html",
	}
}

// DefaultConfig returns the configuration for engsoftmoderna.info.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Domain:   DefaultDomain,
			BaseURL:  DefaultBaseURL,
			Chapters: DefaultChapters(),
			Extras:   DefaultExtras(),
			Buckets: []BucketConfig{
				{Name: "articles", Match: "/artigos/"},
				{Name: "faq", Match: "/faq/"},
			},
		},
		Crawl: CrawlConfig{
			MaxPages:  DefaultMaxPages,
			Timeout:   30 * time.Second,
			UserAgent: DefaultUserAgent,
		},
		Render: RenderConfig{
			Timeout:  2 * time.Minute,
			Workers:  1,
			Retries:  2,
			PageSize: "a4",
			Margins:  MarginsConfig{Top: 12, Bottom: 12, Left: 10, Right: 10},
		},
		Output: OutputConfig{
			WorkDir:  DefaultWorkDir,
			File:     DefaultOutputFile,
			Outline:    true,
			Manifest:   true,
			DateFormat: dateutil.DefaultLayout,
		},
	}
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for callers that
// construct or modify a Config directly (e.g. after applying flags).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.Domain) == "" {
		return fmt.Errorf("%w: site.domain is required", ErrInvalidConfig)
	}
	if err := validateFieldLength("site.domain", c.Site.Domain, MaxDomainLength); err != nil {
		return err
	}
	if err := validateFieldLength("site.baseURL", c.Site.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if c.Site.BaseURL != "" && !strings.HasPrefix(c.Site.BaseURL, "http://") && !strings.HasPrefix(c.Site.BaseURL, "https://") {
		return fmt.Errorf("%w: site.baseURL must start with http:// or https://, got %q", ErrInvalidConfig, c.Site.BaseURL)
	}

	if len(c.Site.Chapters)+len(c.Site.Extras) == 0 {
		return fmt.Errorf("%w: site.chapters and site.extras are both empty", ErrInvalidConfig)
	}
	if err := validateList("site.chapters", c.Site.Chapters, MaxPathLength); err != nil {
		return err
	}
	if err := validateList("site.extras", c.Site.Extras, MaxPathLength); err != nil {
		return err
	}
	if err := validateList("site.excludeExtensions", c.Site.ExcludeExtensions, MaxBucketLength); err != nil {
		return err
	}

	if len(c.Site.Buckets) > MaxListLength {
		return fmt.Errorf("%w: site.buckets has %d entries (max %d)", ErrInvalidConfig, len(c.Site.Buckets), MaxListLength)
	}
	for i, b := range c.Site.Buckets {
		if b.Name == "" || b.Match == "" {
			return fmt.Errorf("%w: site.buckets[%d] needs both name and match", ErrInvalidConfig, i)
		}
		if err := validateFieldLength(fmt.Sprintf("site.buckets[%d].name", i), b.Name, MaxBucketLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("site.buckets[%d].match", i), b.Match, MaxPathLength); err != nil {
			return err
		}
	}

	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("%w: crawl.maxPages must be >= 0, got %d", ErrInvalidConfig, c.Crawl.MaxPages)
	}
	if c.Crawl.Delay < 0 {
		return fmt.Errorf("%w: crawl.delay must be >= 0, got %s", ErrInvalidConfig, c.Crawl.Delay)
	}
	if c.Crawl.Timeout < 0 {
		return fmt.Errorf("%w: crawl.timeout must be >= 0, got %s", ErrInvalidConfig, c.Crawl.Timeout)
	}
	if err := validateFieldLength("crawl.userAgent", c.Crawl.UserAgent, MaxUserAgentLength); err != nil {
		return err
	}

	if c.Render.Timeout <= 0 {
		return fmt.Errorf("%w: render.timeout must be > 0, got %s", ErrInvalidConfig, c.Render.Timeout)
	}
	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers must be between 0 and %d, got %d", ErrInvalidConfig, MaxWorkers, c.Render.Workers)
	}
	if c.Render.Retries < 0 || c.Render.Retries > MaxRetries {
		return fmt.Errorf("%w: render.retries must be between 0 and %d, got %d", ErrInvalidConfig, MaxRetries, c.Render.Retries)
	}
	switch strings.ToLower(c.Render.PageSize) {
	case "", "a4", "letter", "legal":
	default:
		return fmt.Errorf("%w: render.pageSize must be a4, letter or legal, got %q", ErrInvalidConfig, c.Render.PageSize)
	}
	margins := []struct {
		name  string
		value float64
	}{
		{"render.margins.top", c.Render.Margins.Top},
		{"render.margins.bottom", c.Render.Margins.Bottom},
		{"render.margins.left", c.Render.Margins.Left},
		{"render.margins.right", c.Render.Margins.Right},
	}
	for _, m := range margins {
		if m.value < MinMarginMM || m.value > MaxMarginMM {
			return fmt.Errorf("%w: %s must be between %.0f and %.0f mm, got %.2f", ErrInvalidConfig, m.name, MinMarginMM, MaxMarginMM, m.value)
		}
	}
	if err := validateFieldLength("render.browserBin", c.Render.BrowserBin, MaxPathLength); err != nil {
		return err
	}

	if c.Output.WorkDir == "" {
		return fmt.Errorf("%w: output.workDir is required", ErrInvalidConfig)
	}
	if c.Output.File == "" {
		return fmt.Errorf("%w: output.file is required", ErrInvalidConfig)
	}
	if err := validateFieldLength("output.workDir", c.Output.WorkDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.file", c.Output.File, MaxPathLength); err != nil {
		return err
	}
	if _, err := dateutil.GoLayout(c.Output.DateFormat); err != nil {
		return fmt.Errorf("%w: output.dateFormat: %v", ErrInvalidConfig, err)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateList checks list size, rejects blank entries and bounds each entry.
func validateList(fieldName string, values []string, maxLength int) error {
	if len(values) > MaxListLength {
		return fmt.Errorf("%w: %s has %d entries (max %d)", ErrInvalidConfig, fieldName, len(values), MaxListLength)
	}
	for i, v := range values {
		name := fmt.Sprintf("%s[%d]", fieldName, i)
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, name)
		}
		if err := validateFieldLength(name, v, maxLength); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the candidate files for a config name, in lookup order.
// Tries extensions .yaml then .yml, in the current directory then in the
// user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
