package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is; any of them aborts the run before the
// crawl starts.
var (
	// ErrNoSeed is returned when no seed domain or URL is given.
	ErrNoSeed = errors.New("no seed specified: provide a domain or URL to crawl")

	// ErrInvalidLimit is returned when the page limit is negative.
	ErrInvalidLimit = errors.New("invalid limit: must be zero (unlimited) or positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxDepth is returned when the depth ceiling is negative.
	ErrInvalidMaxDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned for a log format other than text, json
	// or pretty.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text, json or pretty")

	// ErrInvalidProxyAddress is returned when the proxy is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
