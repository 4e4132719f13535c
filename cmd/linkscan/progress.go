package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/nao1215/linkscan/internal/crawler"
)

// progress shows a spinner with crawl counters on stderr. A disabled
// progress is a no-op, so callers don't need to check.
type progress struct {
	spinner *spinner.Spinner
}

func newProgress(w io.Writer, enabled bool) *progress {
	if !enabled {
		return &progress{}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " starting crawl"
	return &progress{spinner: s}
}

// Start begins drawing the spinner.
func (p *progress) Start() {
	if p.spinner == nil {
		return
	}
	p.spinner.Start()
}

// Pause erases the spinner so that a result line can be printed cleanly.
// The next Update draws it again.
func (p *progress) Pause() {
	if p.spinner == nil {
		return
	}
	p.spinner.Stop()
}

// Update shows the current counters.
func (p *progress) Update(stats crawler.Stats) {
	if p.spinner == nil {
		return
	}
	p.spinner.Lock()
	p.spinner.Suffix = progressMessage(stats)
	p.spinner.Unlock()
	p.spinner.Start()
}

// Stop erases the spinner.
func (p *progress) Stop() {
	if p.spinner == nil {
		return
	}
	p.spinner.Stop()
}

func progressMessage(stats crawler.Stats) string {
	return fmt.Sprintf(" checked %d, in flight %d, queued %d",
		stats.Completed, stats.InFlight, stats.Pending)
}
