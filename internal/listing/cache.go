package listing

// Page is one server-fetched batch
type Page[T any] struct {
	Index int // 1-based
	Items []T
	Total int // total count reported by the server with this page
}

// Cache holds the pages fetched for each Identity.
// Pages of one identity are contiguous from index 1; the cursor is the number held.
type Cache[T any] struct {
	entries map[Identity][]Page[T]
}

// NewCache creates an empty page cache
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[Identity][]Page[T])}
}

// Pages returns the pages held for id in index order (empty if none)
func (c *Cache[T]) Pages(id Identity) []Page[T] {
	pages := c.entries[id]
	out := make([]Page[T], len(pages))
	copy(out, pages)
	return out
}

// Cursor is the number of pages loaded for id
func (c *Cache[T]) Cursor(id Identity) int {
	return len(c.entries[id])
}

// AppendPage adds page to id. The page must be cursor+1; otherwise the cache is left
// unchanged and an *OutOfOrderPageError is returned.
func (c *Cache[T]) AppendPage(id Identity, page Page[T]) error {
	want := len(c.entries[id]) + 1
	if page.Index != want {
		return &OutOfOrderPageError{Identity: id, Want: want, Got: page.Index}
	}
	c.entries[id] = append(c.entries[id], page)
	return nil
}

// Reset discards every page and the cursor of id
func (c *Cache[T]) Reset(id Identity) {
	delete(c.entries, id)
}

// Flatten concatenates the items of all pages, page 1 first
func (c *Cache[T]) Flatten(id Identity) []T {
	pages := c.entries[id]
	out := make([]T, 0, c.Len(id))
	for _, p := range pages {
		out = append(out, p.Items...)
	}
	return out
}

// Len is len(Flatten(id)) without the copy
func (c *Cache[T]) Len(id Identity) int {
	n := 0
	for _, p := range c.entries[id] {
		n += len(p.Items)
	}
	return n
}

// Total returns the total reported by the most recent page.
// The server may shrink it between requests; the latest value wins.
func (c *Cache[T]) Total(id Identity) (int, bool) {
	pages := c.entries[id]
	if len(pages) == 0 {
		return 0, false
	}
	return pages[len(pages)-1].Total, true
}

// HasMore reports whether the latest total promises items beyond those held.
// Unknown before the first page arrives.
func (c *Cache[T]) HasMore(id Identity) bool {
	total, ok := c.Total(id)
	if !ok {
		return false
	}
	return c.Len(id) < total
}
