package model

// Entry is one URL admitted into the crawl frontier.
// It is created when a link is first accepted and never modified afterwards.
type Entry struct {
	// URL is the normalized URL key.
	URL string

	// Depth is the number of hops from the seed. The seed has depth 0.
	Depth int

	// Parent is the URL of the page the link was found on.
	// Empty for the seed.
	Parent string
}

// IsSeed reports whether the entry is the crawl's starting point.
func (e Entry) IsSeed() bool {
	return e.Depth == 0 && e.Parent == ""
}
