// Package main provides the entry point for the linkscan CLI.
//
// linkscan crawls a website from a seed URL and reports every link that
// answers with an HTTP error or cannot be reached at all.
//
// Usage:
//
//	linkscan example.com
//	linkscan -r -l 500 -v https://example.com/docs/
//
// See --help for all available options.
package main

import "os"

func main() {
	os.Exit(Execute())
}
