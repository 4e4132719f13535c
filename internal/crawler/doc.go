// Package crawler is the link checking engine.
//
// # Architecture
//
// A crawl is driven by the Spider. It normalizes the seed, admits it into a
// Frontier and starts a fixed number of workers. Each worker repeatedly
// takes an entry from the Frontier, fetches it with a Fetcher, emits a
// model.Result and, when the response carried an HTML body, extracts the
// links of the page, normalizes them and offers them back at depth+1.
//
//	seed -> Normalize -> Frontier.Offer
//	worker: Frontier.Take -> Fetcher.Fetch -> Result -> ParseDocument
//	        -> Normalize -> Frontier.Offer -> Frontier.Done
//
// # Frontier
//
// The Frontier owns the set of admitted URL keys. Offer performs the
// seen-check and the mark under one lock, so a URL is fetched at most once
// regardless of how many pages link to it. Take blocks while the queue is
// empty but other entries are in flight, and reports the end of the crawl
// when the queue is empty and nothing is in flight. The page limit stops
// admissions without cancelling requests already running.
//
// # Outcomes
//
// Fetch never returns an error. A response with status >= 400 is an HTTP
// error; DNS failures, refused connections, TLS failures and timeouts are
// network errors with a short detail string. Failed URLs are recorded once
// and never retried.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client, crawler.WithTimeout(30*time.Second))
//	spider := crawler.NewSpider(fetcher, crawler.WithDomainRestriction(true))
//	results, err := spider.Crawl(ctx, "example.com")
//	for r := range results {
//		...
//	}
package crawler
