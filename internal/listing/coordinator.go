package listing

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/wafconsole/internal/models"
)

// FetchState is the load state of one Identity
type FetchState int

const (
	StateIdle FetchState = iota
	StateFetching
	StateExhausted
	StateError
)

func (s FetchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// PageFetcher retrieves one page of a resource. total is the server's count of all
// items matching criteria.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) (items []T, total int, err error)
}

// FetcherFunc adapts a function to PageFetcher
type FetcherFunc[T any] func(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]T, int, error)

func (f FetcherFunc[T]) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]T, int, error) {
	return f(ctx, resource, criteria, page, pageSize)
}

// PageFetchedMsg carries the outcome of one page request back to Update.
type PageFetchedMsg[T any] struct {
	Identity Identity
	Seq      uint64 // request tag; only the entry's in-flight tag is accepted
	Index    int
	Items    []T
	Total    int
	Err      error
}

type entry struct {
	query    Query
	state    FetchState
	err      error
	inflight uint64
	refs     int
}

// Coordinator owns the page cache and FetchState of every acquired Identity of one item
// type. All methods must be called from the Bubble Tea Update goroutine.
type Coordinator[T any] struct {
	fetcher PageFetcher[T]
	cache   *Cache[T]
	entries map[Identity]*entry
	seq     uint64
	timeout time.Duration
	logger  *log.Logger
}

// NewCoordinator creates a coordinator. timeout bounds each page request (0 = none).
// A nil logger discards output.
func NewCoordinator[T any](fetcher PageFetcher[T], timeout time.Duration, logger *log.Logger) *Coordinator[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator[T]{
		fetcher: fetcher,
		cache:   NewCache[T](),
		entries: make(map[Identity]*entry),
		timeout: timeout,
		logger:  logger,
	}
}

// Acquire registers interest in q. Entries are shared and ref-counted.
func (c *Coordinator[T]) Acquire(q Query) {
	if e, ok := c.entries[q.Identity]; ok {
		e.refs++
		return
	}
	c.entries[q.Identity] = &entry{query: q, state: StateIdle, refs: 1}
	c.logger.Debug("cache entry created", "identity", q.Identity)
}

// Release drops interest in id. The last release destroys the entry and its pages;
// a result still in flight for it is then stale.
func (c *Coordinator[T]) Release(id Identity) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(c.entries, id)
	c.cache.Reset(id)
	c.logger.Debug("cache entry destroyed", "identity", id)
}

// RequestNextPage starts loading page cursor+1 for id.
// Returns nil when id is unknown, already fetching or exhausted.
func (c *Coordinator[T]) RequestNextPage(id Identity) tea.Cmd {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	if e.state == StateFetching || e.state == StateExhausted {
		return nil
	}

	c.seq++
	seq := c.seq
	e.state = StateFetching
	e.err = nil
	e.inflight = seq

	next := c.cache.Cursor(id) + 1
	q := Query{Identity: e.query.Identity, Criteria: e.query.Criteria.Clone(), PageSize: e.query.PageSize}
	fetcher := c.fetcher
	timeout := c.timeout

	c.logger.Debug("requesting page", "identity", id, "page", next, "pageSize", q.PageSize)

	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		items, total, err := fetcher.FetchPage(ctx, q.Identity.Resource, q.Criteria, next, q.PageSize)
		return PageFetchedMsg[T]{
			Identity: q.Identity,
			Seq:      seq,
			Index:    next,
			Items:    items,
			Total:    total,
			Err:      err,
		}
	}
}

// Update applies a PageFetchedMsg. Other messages are ignored.
func (c *Coordinator[T]) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(PageFetchedMsg[T])
	if !ok {
		return nil
	}
	return c.apply(m)
}

func (c *Coordinator[T]) apply(m PageFetchedMsg[T]) tea.Cmd {
	e, ok := c.entries[m.Identity]
	if !ok || e.inflight != m.Seq {
		c.logger.Debug("discarding result", "identity", m.Identity, "page", m.Index, "reason", ErrStaleResult)
		return nil
	}
	e.inflight = 0

	if m.Err != nil {
		e.state = StateError
		e.err = &TransportError{Identity: m.Identity, Page: m.Index, Err: m.Err}
		c.logger.Warn("page fetch failed", "identity", m.Identity, "page", m.Index, "err", m.Err)
		return nil
	}

	err := c.cache.AppendPage(m.Identity, Page[T]{Index: m.Index, Items: m.Items, Total: m.Total})
	if err != nil {
		c.logger.Error("dropping cache entry", "identity", m.Identity, "err", err)
		c.reset(e)
		return c.RequestNextPage(m.Identity)
	}

	loaded := c.cache.Len(m.Identity)
	if len(m.Items) == 0 || loaded >= m.Total {
		e.state = StateExhausted
	} else {
		e.state = StateIdle
	}
	c.logger.Debug("page loaded", "identity", m.Identity, "page", m.Index, "loaded", loaded, "total", m.Total, "state", e.state)
	return nil
}

func (c *Coordinator[T]) reset(e *entry) {
	c.cache.Reset(e.query.Identity)
	e.state = StateIdle
	e.err = nil
	e.inflight = 0
}

// Reset discards the pages of id and returns it to idle without fetching
func (c *Coordinator[T]) Reset(id Identity) {
	if e, ok := c.entries[id]; ok {
		c.reset(e)
	}
}

// Refresh discards the pages of id and reloads page 1
func (c *Coordinator[T]) Refresh(id Identity) tea.Cmd {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.reset(e)
	return c.RequestNextPage(id)
}

// Retry re-requests the page that failed, keeping the pages already loaded
func (c *Coordinator[T]) Retry(id Identity) tea.Cmd {
	e, ok := c.entries[id]
	if !ok || e.state != StateError {
		return nil
	}
	e.state = StateIdle
	return c.RequestNextPage(id)
}

// Ensure loads page 1 when id has nothing yet and nothing in flight
func (c *Coordinator[T]) Ensure(id Identity) tea.Cmd {
	e, ok := c.entries[id]
	if !ok || e.state != StateIdle || c.cache.Cursor(id) > 0 {
		return nil
	}
	return c.RequestNextPage(id)
}

// Invalidate refreshes every acquired identity the invalidation names
func (c *Coordinator[T]) Invalidate(inv Invalidation) tea.Cmd {
	var cmds []tea.Cmd
	for id := range c.entries {
		if !inv.Matches(id) {
			continue
		}
		c.logger.Info("invalidated", "identity", id)
		cmds = append(cmds, c.Refresh(id))
	}
	return tea.Batch(cmds...)
}

// Attach subscribes the coordinator to resource on bus
func (c *Coordinator[T]) Attach(bus *Bus, resource string) (unsubscribe func()) {
	return bus.Subscribe(resource, c.Invalidate)
}

// State returns the FetchState of id (idle when unknown)
func (c *Coordinator[T]) State(id Identity) FetchState {
	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return StateIdle
}

// Items is the flattened item list of id
func (c *Coordinator[T]) Items(id Identity) []T {
	return c.cache.Flatten(id)
}

// Pages returns the pages held for id
func (c *Coordinator[T]) Pages(id Identity) []Page[T] {
	return c.cache.Pages(id)
}

// Total is the latest server total for id, 0 before the first page
func (c *Coordinator[T]) Total(id Identity) int {
	total, _ := c.cache.Total(id)
	return total
}

// HasMore is false exactly when everything reported has been loaded or id is exhausted
func (c *Coordinator[T]) HasMore(id Identity) bool {
	if c.State(id) == StateExhausted {
		return false
	}
	return c.cache.HasMore(id)
}

// IsLoading reports any request in flight for id
func (c *Coordinator[T]) IsLoading(id Identity) bool {
	return c.State(id) == StateFetching
}

// IsLoadingMore reports a request in flight beyond page 1
func (c *Coordinator[T]) IsLoadingMore(id Identity) bool {
	return c.IsLoading(id) && c.cache.Cursor(id) > 0
}

// LastError returns the failure to surface for id. Only transport errors are user-visible.
func (c *Coordinator[T]) LastError(id Identity) error {
	e, ok := c.entries[id]
	if !ok || e.err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(e.err, &te) {
		return te
	}
	return nil
}

// Refs reports how many holders share id
func (c *Coordinator[T]) Refs(id Identity) int {
	if e, ok := c.entries[id]; ok {
		return e.refs
	}
	return 0
}
