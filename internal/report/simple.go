package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

// SimpleWriter outputs a plain-text summary for terminals.
type SimpleWriter struct {
	baseWriter

	// listBroken repeats the broken links after the counters.
	listBroken bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithBrokenList makes the writer list every broken link with the page it
// was found on.
func WithBrokenList(list bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.listBroken = list
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Seed:     %s\n", summary.Seed)
	fmt.Fprintf(&sb, "Checked:  %d links in %s\n", summary.Total, summary.Elapsed().Round(time.Millisecond))
	for _, row := range kindRows(summary) {
		fmt.Fprintf(&sb, "  %-20s %d\n", row.label+":", row.count)
	}

	if summary.HasBroken() {
		fmt.Fprintf(&sb, "Result:   %d broken link(s)\n", summary.Broken())
	} else {
		sb.WriteString("Result:   no broken links\n")
	}

	if w.listBroken && summary.HasBroken() {
		sb.WriteString("\n")
		for _, r := range summary.BrokenResults() {
			fmt.Fprintf(&sb, "  [%s] %s\n", r.StatusText(), r.URL)
			if r.Parent != "" {
				fmt.Fprintf(&sb, "      found on %s\n", r.Parent)
			}
		}
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
