// Package database stores link-check runs in a SQLite file.
//
// Each run is one row in crawl_runs with its counters, and every checked
// URL is one row in crawl_results. The file is written with
// modernc.org/sqlite, which needs no cgo. Stored runs feed the compare
// subcommand, which diffs the broken links of two runs.
package database
