package model

import (
	"strconv"
	"time"
)

// Result is the recorded outcome of fetching one frontier entry.
// Exactly one Result is produced per Entry.
type Result struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// Parent is the page the URL was discovered on. Empty for the seed.
	Parent string `json:"parent,omitempty"`

	// Depth is the hop count from the seed.
	Depth int `json:"depth"`

	// Kind classifies the outcome.
	Kind Kind `json:"kind"`

	// StatusCode is the HTTP status code. Zero for network errors.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the Content-Type response header, if any.
	ContentType string `json:"content_type,omitempty"`

	// Error describes a network failure, such as "timeout" or
	// "connection refused".
	Error string `json:"error,omitempty"`

	// Hash is the hex encoded SHA3-256 digest of the response body,
	// empty when no body was read.
	Hash string `json:"hash,omitempty"`

	// Duration is how long the fetch took.
	Duration time.Duration `json:"duration"`
}

// IsBroken reports whether the result is an HTTP error or a network error.
func (r Result) IsBroken() bool {
	return r.Kind.IsBroken()
}

// StatusText returns the status code, or the error detail when the request
// never got a response.
func (r Result) StatusText() string {
	if r.Kind == KindNetworkError {
		if r.Error == "" {
			return "network error"
		}
		return r.Error
	}
	return strconv.Itoa(r.StatusCode)
}
