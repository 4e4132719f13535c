package crawler

import (
	"context"
	"sync"

	"github.com/nao1215/linkscan/internal/model"
)

// defaultMaxDepth is the hop ceiling used when none is configured.
const defaultMaxDepth = 100

// Frontier is the crawl work queue together with the set of URL keys ever
// admitted. It is shared by all workers of one crawl and discarded when the
// crawl ends.
//
// Offer is the only mutator of the seen set. The check and the mark happen
// under one lock, so a key is admitted at most once no matter how many
// workers offer it concurrently.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	// seen holds every admitted key. It only grows.
	seen map[string]struct{}

	// queue is the FIFO of admitted entries waiting to be taken.
	queue []model.Entry

	seedHost string
	restrict bool
	limit    int
	maxDepth int

	accepted  int
	inFlight  int
	completed int
	finished  bool
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithRestrictToDomain rejects offered keys whose host differs from the
// seed host. Hosts are compared exactly, a subdomain is a different host.
func WithRestrictToDomain(restrict bool) FrontierOption {
	return func(f *Frontier) {
		f.restrict = restrict
	}
}

// WithLimit caps the number of admitted entries. Zero means unlimited.
func WithLimit(limit int) FrontierOption {
	return func(f *Frontier) {
		f.limit = limit
	}
}

// WithFrontierMaxDepth sets the hop ceiling. Entries deeper than depth are
// rejected.
func WithFrontierMaxDepth(depth int) FrontierOption {
	return func(f *Frontier) {
		f.maxDepth = depth
	}
}

// NewFrontier creates an empty Frontier for a crawl whose seed lives on
// seedHost.
func NewFrontier(seedHost string, opts ...FrontierOption) *Frontier {
	f := &Frontier{
		seen:     make(map[string]struct{}),
		seedHost: seedHost,
		maxDepth: defaultMaxDepth,
	}
	f.cond = sync.NewCond(&f.mu)

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Offer admits key at the given depth and reports whether it was accepted.
// A key is rejected when the page limit is reached, when it was admitted
// before, when depth exceeds the ceiling, or when domain restriction is on
// and its host is not the seed host. Only accepted keys are marked as seen.
func (f *Frontier) Offer(key string, depth int, parent string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.finished {
		return false
	}
	if f.limit > 0 && f.accepted >= f.limit {
		return false
	}
	if _, ok := f.seen[key]; ok {
		return false
	}
	if depth > f.maxDepth {
		return false
	}
	if f.restrict && hostOf(key) != f.seedHost {
		return false
	}

	f.seen[key] = struct{}{}
	f.accepted++
	f.queue = append(f.queue, model.Entry{URL: key, Depth: depth, Parent: parent})
	f.cond.Signal()
	return true
}

// Take removes and returns the next pending entry. It blocks while the
// queue is empty and other entries are still being processed, because those
// may offer new links. It returns false once the crawl is finished (no
// pending entry and nothing in flight) or ctx is done.
//
// Every entry returned must be released with Done.
func (f *Frontier) Take(ctx context.Context) (model.Entry, bool) {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cond.Broadcast()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return model.Entry{}, false
		}
		if len(f.queue) > 0 {
			entry := f.queue[0]
			f.queue[0] = model.Entry{}
			f.queue = f.queue[1:]
			f.inFlight++
			return entry, true
		}
		if f.inFlight == 0 {
			f.finished = true
			f.cond.Broadcast()
			return model.Entry{}, false
		}
		f.cond.Wait()
	}
}

// Done marks one taken entry as fully processed, including the offering of
// the links found on it.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight--
	f.completed++
	if f.inFlight == 0 && len(f.queue) == 0 {
		f.finished = true
		f.cond.Broadcast()
	}
}

// Finished reports whether the crawl has drained.
func (f *Frontier) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// Stats returns a snapshot of the frontier counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Accepted:  f.accepted,
		Pending:   len(f.queue),
		InFlight:  f.inFlight,
		Completed: f.completed,
	}
}

// Stats contains crawl counters.
type Stats struct {
	// Accepted is the number of URLs admitted into the frontier.
	Accepted int

	// Pending is the number of admitted URLs not yet taken by a worker.
	Pending int

	// InFlight is the number of URLs being fetched or parsed.
	InFlight int

	// Completed is the number of URLs fully processed.
	Completed int
}
