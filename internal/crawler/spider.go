package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkscan/internal/model"
)

// DefaultConcurrency is the number of workers used when none is configured.
const DefaultConcurrency = 5

// Spider drives one crawl: it seeds a Frontier, runs a fixed pool of
// workers over it and streams one Result per admitted URL.
type Spider struct {
	fetcher Fetcher

	// concurrency is the number of workers.
	concurrency int

	// restrict limits the crawl to the seed's host.
	restrict bool

	// limit caps admitted URLs. Zero means unlimited.
	limit int

	// maxDepth is the hop ceiling from the seed.
	maxDepth int

	// ignorePatterns are URL path globs never offered to the frontier
	// (e.g. "/logout*", "*.pdf").
	ignorePatterns []string

	// followPatterns, when set, restrict offered URLs to paths matching at
	// least one glob. The seed is always crawled.
	followPatterns []string

	logger *slog.Logger

	mu       sync.Mutex
	frontier *Frontier
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithConcurrency sets the number of workers. Values below 1 keep the
// default.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDomainRestriction limits the crawl to URLs on the seed's host.
func WithDomainRestriction(restrict bool) SpiderOption {
	return func(s *Spider) {
		s.restrict = restrict
	}
}

// WithPageLimit caps the number of URLs admitted. Zero means unlimited.
func WithPageLimit(limit int) SpiderOption {
	return func(s *Spider) {
		s.limit = limit
	}
}

// WithMaxDepth sets the maximum hop count from the seed.
// 0 = only the seed, 1 = the seed and the links on it, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithIgnorePatterns sets URL path patterns that are never crawled.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow. If set, only URLs
// matching at least one pattern are crawled.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches through fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		maxDepth:    defaultMaxDepth,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl starts crawling from seed and returns the stream of results in
// completion order. The channel is closed when the frontier is exhausted,
// or when ctx is cancelled and the workers have returned.
//
// An error is returned only when seed cannot be normalized; nothing is
// fetched in that case.
func (s *Spider) Crawl(ctx context.Context, seed string) (<-chan model.Result, error) {
	key, err := NormalizeSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", seed, err)
	}

	frontier := NewFrontier(hostOf(key),
		WithRestrictToDomain(s.restrict),
		WithLimit(s.limit),
		WithFrontierMaxDepth(s.maxDepth),
	)
	frontier.Offer(key, 0, "")

	s.mu.Lock()
	s.frontier = frontier
	s.mu.Unlock()

	s.logger.Info("crawl started",
		"seed", key,
		"workers", s.concurrency,
		"restrict", s.restrict,
		"limit", s.limit,
		"max_depth", s.maxDepth,
	)

	results := make(chan model.Result, s.concurrency)

	var g errgroup.Group
	for id := range s.concurrency {
		g.Go(func() error {
			s.work(ctx, id, frontier, results)
			return nil
		})
	}

	go func() {
		_ = g.Wait() //nolint:errcheck // workers never fail
		stats := frontier.Stats()
		s.logger.Info("crawl finished", "accepted", stats.Accepted, "completed", stats.Completed)
		close(results)
	}()

	return results, nil
}

// Stats returns the counters of the current crawl.
func (s *Spider) Stats() Stats {
	s.mu.Lock()
	frontier := s.frontier
	s.mu.Unlock()

	if frontier == nil {
		return Stats{}
	}
	return frontier.Stats()
}

// work is one worker's loop: take, fetch, report, expand.
func (s *Spider) work(ctx context.Context, id int, frontier *Frontier, results chan<- model.Result) {
	for {
		entry, ok := frontier.Take(ctx)
		if !ok {
			s.logger.Debug("worker stopped", "worker", id)
			return
		}
		s.process(ctx, frontier, entry, results)
		frontier.Done()
	}
}

func (s *Spider) process(ctx context.Context, frontier *Frontier, entry model.Entry, results chan<- model.Result) {
	out := s.fetcher.Fetch(ctx, entry.URL)

	result := model.Result{
		URL:         entry.URL,
		Parent:      entry.Parent,
		Depth:       entry.Depth,
		Kind:        out.Kind,
		StatusCode:  out.StatusCode,
		ContentType: out.ContentType,
		Error:       out.Detail,
		Hash:        out.Hash(),
		Duration:    out.Duration,
	}

	select {
	case results <- result:
	case <-ctx.Done():
		return
	}

	// Broken pages are expanded too when they returned an HTML body.
	if len(out.Body) == 0 || !out.IsHTML() {
		return
	}

	// Relative links resolve against where the page was served from, which
	// differs from entry.URL after a redirect such as /docs -> /docs/.
	base := entry.URL
	if out.FinalURL != "" {
		base = out.FinalURL
	}
	pageURL, err := url.Parse(base)
	if err != nil {
		return
	}
	doc, err := ParseDocument(out.Body, out.ContentType, pageURL)
	if err != nil {
		s.logger.Debug("skipping unparsable page", "url", entry.URL, "error", err)
		return
	}

	offered := 0
	for _, link := range doc.Links {
		key, err := Normalize(link, doc.Base)
		if err != nil {
			s.logger.Debug("skipping link", "page", entry.URL, "link", link, "error", err)
			continue
		}
		if !s.shouldCrawl(key) {
			continue
		}
		if frontier.Offer(key, entry.Depth+1, entry.URL) {
			offered++
		}
	}
	s.logger.Debug("page expanded", "url", entry.URL, "links", len(doc.Links), "admitted", offered)
}

// shouldCrawl checks a URL key against the ignore and follow patterns.
// Ignore patterns win; with follow patterns set, one of them must match.
func (s *Spider) shouldCrawl(key string) bool {
	if len(s.ignorePatterns) == 0 && len(s.followPatterns) == 0 {
		return true
	}

	u, err := url.Parse(key)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern reports whether path matches a glob pattern.
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use filepath.Match, so * stays within one segment
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
