package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs the summary in GitHub-flavored Markdown,
// for pasting into issues and CI job summaries.
type MarkdownWriter struct {
	baseWriter

	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeBroken(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Link Check Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", summary.Seed},
			{"Started", summary.StartedAt.Format(time.RFC3339)},
			{"Duration", summary.Elapsed().Round(time.Millisecond).String()},
			{"Links Checked", strconv.Itoa(summary.Total)},
			{"Broken Links", strconv.Itoa(summary.Broken())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, 4)
	for _, row := range kindRows(summary) {
		rows = append(rows, []string{w.displayLabel(row.label), strconv.Itoa(row.count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Total > 0 {
		w.writePieChart(md, summary)
	}

	if summary.HasBroken() {
		md.Cautionf("%d of %d links are broken.", summary.Broken(), summary.Total)
	} else {
		md.Tip("No broken links found.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Outcomes"),
		piechart.WithShowData(true),
	)

	for _, row := range kindRows(summary) {
		if row.count > 0 {
			chart.LabelAndIntValue(w.displayLabel(row.label), uint64(row.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeBroken(md *markdown.Markdown, summary *model.Summary) {
	broken := summary.BrokenResults()
	if len(broken) == 0 {
		return
	}

	md.H2("Broken Links")
	md.PlainText("")

	rows := make([][]string, len(broken))
	for i, r := range broken {
		parent := r.Parent
		if parent == "" {
			parent = "-"
		}
		rows[i] = []string{
			truncateString(r.URL, 80),
			r.StatusText(),
			w.displayLabel(r.Kind.Label()),
			truncateString(parent, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Kind", "Found On"},
		Rows:   rows,
	})
	md.PlainText("")
}

// acronyms are upper-cased rather than title-cased in display labels.
var acronyms = map[string]bool{"http": true, "ok": true}

// displayLabel title-cases each word of label. Parenthesised status ranges
// such as "(4xx)" are kept as written.
func (w *MarkdownWriter) displayLabel(label string) string {
	words := strings.Fields(label)
	for i, word := range words {
		switch {
		case strings.HasPrefix(word, "("):
		case acronyms[word]:
			words[i] = strings.ToUpper(word)
		default:
			words[i] = w.title.String(word)
		}
	}
	return strings.Join(words, " ")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkscan](https://github.com/nao1215/linkscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
