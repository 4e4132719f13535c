package report

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

// Reporter consumes crawl results one at a time, in completion order.
type Reporter interface {
	Report(result model.Result) error
}

// LineReporter prints one line per result as the crawl progresses.
// Broken results are always printed; successful ones only at
// verbosity >= 1. It is safe for concurrent use.
type LineReporter struct {
	mu        sync.Mutex
	output    io.Writer
	verbosity int
	total     int
	broken    int
}

// NewLineReporter creates a LineReporter writing to output.
func NewLineReporter(output io.Writer, verbosity int) *LineReporter {
	return &LineReporter{output: output, verbosity: verbosity}
}

// Report prints the line for result, if the verbosity asks for it.
//
//	OK     200 - http://example.com/
//	BROKEN 404 - http://example.com/missing
//	BROKEN timeout - http://slow.example.com/ (found on http://example.com/)
//
// The page a broken link was found on is shown from verbosity 1.
func (r *LineReporter) Report(result model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	if result.IsBroken() {
		r.broken++
	} else if r.verbosity < 1 {
		return nil
	}

	tag := "OK"
	if result.IsBroken() {
		tag = "BROKEN"
	}
	line := fmt.Sprintf("%-6s %s - %s", tag, result.StatusText(), result.URL)
	if result.IsBroken() && r.verbosity >= 1 && result.Parent != "" {
		line += " (found on " + result.Parent + ")"
	}

	_, err := fmt.Fprintln(r.output, line)
	return err
}

// HasBroken reports whether at least one broken result was reported.
func (r *LineReporter) HasBroken() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broken > 0
}

// Counts returns the number of results and broken results seen so far.
func (r *LineReporter) Counts() (total, broken int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.broken
}

// Collector accumulates results into a model.Summary for the end-of-run
// writers and the database export. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	summary *model.Summary
}

// NewCollector creates a Collector for a crawl of seed started at startedAt.
func NewCollector(seed string, startedAt time.Time) *Collector {
	return &Collector{summary: model.NewSummary(seed, startedAt)}
}

// Report adds result to the summary.
func (c *Collector) Report(result model.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Add(result)
	return nil
}

// Summary finishes and returns the collected summary. Results reported
// afterwards are not included in the returned value's order guarantee.
func (c *Collector) Summary(finishedAt time.Time) *model.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Finish(finishedAt)
	return c.summary
}

// MultiReporter forwards each result to several Reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter creates a Reporter that reports to all reporters.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

// Report forwards result to every reporter, even if one of them fails,
// and returns the joined errors.
func (m *MultiReporter) Report(result model.Result) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
