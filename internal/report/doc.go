// Package report turns crawl results into output.
//
// Results reach the package twice. While the crawl runs, every result
// goes through a Reporter: LineReporter prints one line per link and
// Collector accumulates a model.Summary. After the crawl, a Writer
// renders the finished summary:
//   - SimpleWriter: plain-text counters for terminal display
//   - JSONWriter: a JSON document for tool integration
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid chart
package report
