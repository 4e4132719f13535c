package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of crawl workers.
	DefaultConcurrency = 5

	// DefaultTimeout is the per-request timeout. A request that does not
	// complete in time is reported as a network error with detail "timeout".
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth is the safety ceiling on hop count from the seed.
	// It keeps crawls of generated, infinitely deep sites finite.
	DefaultMaxDepth = 100

	// DefaultLimit of zero means the number of pages is not limited.
	DefaultLimit = 0

	// DefaultCrawlDelay is the minimum delay between two requests to the
	// same host. Zero disables the delay.
	DefaultCrawlDelay = 0

	// DefaultUserAgent identifies linkscan in HTTP requests.
	DefaultUserAgent = "linkscan/1.0 (+https://github.com/nao1215/linkscan)"

	// DefaultMaxBodySize caps how much of a response body is read (5MB).
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "linkscan"
)

// Log output formats accepted by LogFormat.
const (
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// Config holds the crawl policy and every ambient setting of one run.
// It is populated from CLI flags and the optional YAML file, validated once
// and then only read.
type Config struct {
	// Seed is the domain or URL the crawl starts from. A bare domain such as
	// "example.com" is crawled over http.
	Seed string

	// RestrictToDomain limits the crawl to URLs whose host equals the
	// seed's host.
	RestrictToDomain bool

	// Limit is the maximum number of URLs admitted into the frontier.
	// Zero means unlimited.
	Limit int

	// Concurrency is the number of workers fetching in parallel.
	Concurrency int

	// Timeout applies to each request individually.
	Timeout time.Duration

	// MaxDepth is the maximum hop count from the seed.
	MaxDepth int

	// CrawlDelay is the minimum delay between requests to the same host.
	CrawlDelay time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of response body bytes read.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Verbosity is the number of -v flags. 0 shows only broken links and
	// errors, 1 adds successful links and info logs, 2 and more add debug logs.
	Verbosity int

	// LogFormat is one of LogFormatText, LogFormatJSON or LogFormatPretty.
	LogFormat string

	// Progress shows a spinner with crawl counters on stderr.
	Progress bool

	// ConfigFilePath is the YAML configuration file given with --config.
	ConfigFilePath string

	// SiteConfigs holds the per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport writes the end-of-run summary as JSON.
	JSONReport bool

	// MarkdownReport writes the end-of-run summary as Markdown.
	MarkdownReport bool

	// ReportFile is where the summary report is written. Empty means stdout.
	ReportFile string

	// DBFile is an optional SQLite file the run's results are exported to.
	DBFile string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Limit:       DefaultLimit,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		MaxDepth:    DefaultMaxDepth,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		LogFormat:   LogFormatText,
		SiteConfigs: &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGConfigDir returns the XDG config directory for linkscan.
// On Linux: ~/.config/linkscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGConfigFile returns the config file path inside XDGConfigDir.
func XDGConfigFile() string {
	return filepath.Join(XDGConfigDir(), "config.yaml")
}

// Validate checks the configuration and returns the first problem found.
// All returned errors wrap one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatPretty:
	default:
		return ErrInvalidLogFormat
	}
	if c.ProxyAddress != "" && !isValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}
	return nil
}

// WritesStructuredReport reports whether a JSON or Markdown document is
// requested.
func (c *Config) WritesStructuredReport() bool {
	return c.JSONReport || c.MarkdownReport
}

// isValidProxyAddress checks for a non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
