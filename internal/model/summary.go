package model

import (
	"net/http"
	"slices"
	"strings"
	"time"
)

// Summary aggregates every result of one crawl run.
// It is the input of the end-of-run report writers and the database export.
type Summary struct {
	// Seed is the normalized seed URL.
	Seed string `json:"seed"`

	// StartedAt is when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last result was recorded.
	FinishedAt time.Time `json:"finished_at"`

	// Total is the number of results.
	Total int `json:"total"`

	// Succeeded is the number of results below status 400.
	Succeeded int `json:"succeeded"`

	// ClientErrors is the number of 4xx results.
	ClientErrors int `json:"client_errors"`

	// ServerErrors is the number of 5xx results.
	ServerErrors int `json:"server_errors"`

	// NetworkErrors is the number of requests that got no response.
	NetworkErrors int `json:"network_errors"`

	// Results holds all results sorted by URL.
	Results []Result `json:"results"`
}

// NewSummary creates an empty summary for the given seed.
func NewSummary(seed string, startedAt time.Time) *Summary {
	return &Summary{
		Seed:      seed,
		StartedAt: startedAt,
		Results:   make([]Result, 0),
	}
}

// Add records one result and updates the counters.
// Add is not safe for concurrent use.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
	s.Total++

	switch {
	case r.Kind == KindNetworkError:
		s.NetworkErrors++
	case r.Kind == KindHTTPError && r.StatusCode >= http.StatusInternalServerError:
		s.ServerErrors++
	case r.Kind == KindHTTPError:
		s.ClientErrors++
	default:
		s.Succeeded++
	}
}

// Broken returns the number of broken results.
func (s *Summary) Broken() int {
	return s.ClientErrors + s.ServerErrors + s.NetworkErrors
}

// HasBroken reports whether at least one broken result was recorded.
func (s *Summary) HasBroken() bool {
	return s.Broken() > 0
}

// BrokenResults returns the broken results in URL order.
func (s *Summary) BrokenResults() []Result {
	broken := make([]Result, 0, s.Broken())
	for _, r := range s.Results {
		if r.IsBroken() {
			broken = append(broken, r)
		}
	}
	return broken
}

// Finish sorts the results by URL and stamps the finish time.
// Output built from a finished summary does not depend on completion order.
func (s *Summary) Finish(finishedAt time.Time) {
	s.FinishedAt = finishedAt
	slices.SortFunc(s.Results, func(a, b Result) int {
		return strings.Compare(a.URL, b.URL)
	})
}

// Elapsed returns the wall-clock duration of the crawl.
func (s *Summary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
