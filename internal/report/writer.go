package report

import (
	"io"

	"github.com/nao1215/linkscan/internal/model"
)

// Writer renders the end-of-run summary in one output format.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// kindRows lists the summary counters in display order.
func kindRows(summary *model.Summary) []struct {
	label string
	count int
} {
	return []struct {
		label string
		count int
	}{
		{"succeeded", summary.Succeeded},
		{"client errors (4xx)", summary.ClientErrors},
		{"server errors (5xx)", summary.ServerErrors},
		{"network errors", summary.NetworkErrors},
	}
}
