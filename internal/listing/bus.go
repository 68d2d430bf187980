package listing

import (
	"io"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Invalidation names what a mutation made stale. A nil Identity covers every identity of
// the resource.
type Invalidation struct {
	Resource string
	Identity *Identity
}

// Matches reports whether id falls under the invalidation
func (inv Invalidation) Matches(id Identity) bool {
	if inv.Identity != nil {
		return *inv.Identity == id
	}
	return inv.Resource == id.Resource
}

// InvalidatedMsg is returned by mutation commands after the server accepted the change.
// The root model hands it to Bus.Publish.
type InvalidatedMsg struct {
	Invalidation
}

// Invalidate builds the message for a resource-wide invalidation
func Invalidate(resource string) tea.Msg {
	return InvalidatedMsg{Invalidation{Resource: resource}}
}

// InvalidateIdentity builds the message for a single identity
func InvalidateIdentity(id Identity) tea.Msg {
	return InvalidatedMsg{Invalidation{Resource: id.Resource, Identity: &id}}
}

// Handler reacts to an invalidation and may return a command (usually a reload)
type Handler func(Invalidation) tea.Cmd

// Bus fans invalidations out to subscribers by resource name.
// Like the rest of the package it is owned by the Update goroutine.
type Bus struct {
	next   int
	subs   map[string]map[int]Handler
	logger *log.Logger
}

// NewBus creates an empty bus. A nil logger discards output.
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bus{
		subs:   make(map[string]map[int]Handler),
		logger: logger,
	}
}

// Subscribe registers h for resource. Call the returned func to unsubscribe.
func (b *Bus) Subscribe(resource string, h Handler) func() {
	b.next++
	id := b.next
	if b.subs[resource] == nil {
		b.subs[resource] = make(map[int]Handler)
	}
	b.subs[resource][id] = h

	return func() {
		delete(b.subs[resource], id)
		if len(b.subs[resource]) == 0 {
			delete(b.subs, resource)
		}
	}
}

// Publish delivers inv to every subscriber of its resource in subscription order
// and batches the commands they return.
func (b *Bus) Publish(inv Invalidation) tea.Cmd {
	subs := b.subs[inv.Resource]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	b.logger.Debug("publishing invalidation", "resource", inv.Resource, "subscribers", len(ids))

	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		h, ok := subs[id]
		if !ok {
			continue
		}
		cmds = append(cmds, h(inv))
	}
	return tea.Batch(cmds...)
}

// Subscribers reports how many handlers listen on resource
func (b *Bus) Subscribers(resource string) int {
	return len(b.subs[resource])
}
