// Package model defines the data passed between the crawler, the reporters
// and the database export.
//
//   - Entry: a URL admitted into the crawl frontier
//   - Result: the classified outcome of fetching one entry
//   - Summary: every result of one run plus per-kind counters
//
// The types carry JSON tags because the JSON report serializes them directly.
package model
