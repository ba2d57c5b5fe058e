// Package feed implements the incremental result feed: a stateful window
// over a paged catalog source with a staleness guard for late responses.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
)

// DefaultPageSize is the window extension size used when none is configured.
const DefaultPageSize = 12

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 15 * time.Second

// State is the feed lifecycle state.
type State string

const (
	// StateIdle means no fetch is pending; more data may be available.
	StateIdle State = "idle"
	// StateReset means the configuration changed and the first page is in flight.
	StateReset State = "reset"
	// StateLoadingMore means an additional page is in flight at the current configuration.
	StateLoadingMore State = "loading_more"
	// StateExhausted means the source has no more records for the current configuration.
	StateExhausted State = "exhausted"
)

// Config is the query configuration a window is built under. A response is
// only applied if the configuration generation it was requested for is still
// current.
type Config struct {
	Filter catalog.Filter
	Sort   catalog.SortKey
	Query  string
}

// Page is one slice of the filtered result set as served by a Source.
// TotalCount is the size of the full filtered set; sources that cannot
// compute it return a value <= 0 and the feed falls back to a page-size
// heuristic for hasMore.
type Page struct {
	Items      []catalog.Record
	TotalCount int
}

// Source supplies pages of filtered, sorted catalog records.
// Requesting the same page of the same configuration twice must yield the
// same slice.
type Source interface {
	FetchPage(ctx context.Context, cfg Config, page, pageSize int) (*Page, error)
}

// Snapshot is the immutable UI-facing view of the feed.
type Snapshot struct {
	Results []catalog.Record
	State   State
	HasMore bool
	Loading bool
	// Err carries the translated failure of the most recent fetch, if any.
	// It is cleared by the next successful fetch.
	Err error
}

// Feed tracks the current result window for one query configuration and
// guarantees at most one outstanding fetch. All exported methods are safe
// for concurrent use.
type Feed struct {
	source   Source
	pageSize int
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	gen       uint64
	cfg       Config
	state     State
	window    []catalog.Record
	nextPage  int
	hasMore   bool
	lastErr   error
	listeners []func(Snapshot)
}

// Option configures a Feed.
type Option func(*Feed)

// WithPageSize overrides the default page size.
func WithPageSize(size int) Option {
	return func(f *Feed) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

// WithTimeout overrides the default per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// New creates a feed over the given source. The feed is empty and idle until
// SetConfig issues the first fetch.
func New(source Source, logger *slog.Logger, opts ...Option) *Feed {
	f := &Feed{
		source:   source,
		pageSize: DefaultPageSize,
		timeout:  DefaultTimeout,
		logger:   logger.With("component", "feed"),
		state:    StateIdle,
		window:   []catalog.Record{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe registers a listener invoked with a snapshot after every visible
// state change. Listeners are called outside the feed lock.
func (f *Feed) Subscribe(fn func(Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Snapshot returns the current UI-facing view.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// SetConfig discards the current window and fetches the first page under the
// new configuration. Any in-flight fetch issued under a previous
// configuration is ignored when its response arrives (staleness guard).
func (f *Feed) SetConfig(ctx context.Context, cfg Config) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.cfg = cfg
	f.state = StateReset
	f.window = []catalog.Record{}
	f.nextPage = 0
	f.hasMore = false
	f.lastErr = nil
	f.mu.Unlock()

	f.notify()
	go f.fetch(ctx, gen, cfg, 0, true)
}

// LoadMore requests the next page at the current configuration. It is a
// no-op while a fetch is pending or when the feed is exhausted.
func (f *Feed) LoadMore(ctx context.Context) {
	f.mu.Lock()
	if f.state != StateIdle || !f.hasMore {
		f.mu.Unlock()
		return
	}
	f.state = StateLoadingMore
	gen := f.gen
	cfg := f.cfg
	page := f.nextPage
	f.mu.Unlock()

	f.notify()
	go f.fetch(ctx, gen, cfg, page, false)
}

// fetch retrieves one page and applies it if the configuration generation is
// still current.
func (f *Feed) fetch(ctx context.Context, gen uint64, cfg Config, page int, reset bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := f.source.FetchPage(fetchCtx, cfg, page, f.pageSize)

	f.mu.Lock()
	if gen != f.gen {
		// Stale response: the configuration changed while the fetch was in
		// flight. Discard without touching the current window.
		f.mu.Unlock()
		f.logger.Debug("discarded stale page", "page", page, "requested_gen", gen)
		return
	}
	if err != nil {
		// The window keeps its last good state; the next explicit trigger
		// retries. No automatic retry loop.
		f.state = StateIdle
		if reset {
			f.hasMore = true
		}
		f.lastErr = err
		f.mu.Unlock()
		f.notify()
		f.logger.Warn("page fetch failed", "page", page, "error", err)
		return
	}

	if reset {
		f.window = result.Items
	} else {
		f.window = append(f.window, result.Items...)
	}
	f.nextPage = page + 1
	f.hasMore = f.computeHasMore(result)
	f.lastErr = nil
	if f.hasMore {
		f.state = StateIdle
	} else {
		f.state = StateExhausted
	}
	f.mu.Unlock()
	f.notify()
}

// computeHasMore compares the window against the known total filtered count,
// falling back to the fixed-page-size heuristic when the source does not
// report a total.
func (f *Feed) computeHasMore(result *Page) bool {
	if result.TotalCount > 0 {
		return len(f.window) < result.TotalCount
	}
	return len(result.Items) == f.pageSize && len(result.Items) > 0
}

func (f *Feed) snapshotLocked() Snapshot {
	results := make([]catalog.Record, len(f.window))
	copy(results, f.window)
	return Snapshot{
		Results: results,
		State:   f.state,
		HasMore: f.hasMore,
		Loading: f.state == StateReset || f.state == StateLoadingMore,
		Err:     f.lastErr,
	}
}

func (f *Feed) notify() {
	f.mu.Lock()
	snap := f.snapshotLocked()
	listeners := make([]func(Snapshot), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
