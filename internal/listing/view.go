package listing

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thesavant42/wafconsole/internal/models"
)

// ViewConfig describes one list screen
type ViewConfig struct {
	Resource string
	Schema   Schema
	Defaults models.FilterCriteria
	PageSize int
	Seed     models.FilterCriteria // one-shot navigational override, may be nil
}

// View binds a FilterState, a shared Coordinator and a Trigger for one mounted list.
// The only mutating entry points are SubmitFilter, ResetFilter, Retry and RefreshFromStart.
type View[T any] struct {
	filter  *FilterState
	coord   *Coordinator[T]
	trigger Trigger
	active  Identity
	mounted bool
}

// NewView creates an unmounted view and consumes cfg.Seed
func NewView[T any](cfg ViewConfig, coord *Coordinator[T]) (*View[T], error) {
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d for %s", cfg.PageSize, cfg.Resource)
	}
	f := NewFilterState(cfg.Resource, cfg.Schema, cfg.Defaults, cfg.PageSize)
	if _, err := f.ApplySeed(cfg.Seed); err != nil {
		return nil, fmt.Errorf("failed to apply navigation seed: %w", err)
	}
	return &View[T]{
		filter: f,
		coord:  coord,
		active: f.Identity(),
	}, nil
}

// Init mounts the view and loads page 1 unless the shared entry already has pages
func (v *View[T]) Init() tea.Cmd {
	if !v.mounted {
		v.mounted = true
		v.active = v.filter.Identity()
		v.coord.Acquire(v.filter.Query())
	}
	v.trigger.Sync(v.HasMore())
	return v.coord.Ensure(v.active)
}

// Update feeds fetch results to the coordinator and keeps the trigger in step
func (v *View[T]) Update(msg tea.Msg) tea.Cmd {
	cmd := v.coord.Update(msg)
	if m, ok := msg.(PageFetchedMsg[T]); ok && m.Identity == v.active {
		v.trigger.Rearm()
	}
	v.sync()
	return cmd
}

// SentinelVisible reports the sentinel's visibility and returns the next page load
// when it just came into view.
func (v *View[T]) SentinelVisible(visible bool) tea.Cmd {
	v.sync()
	if !v.trigger.Observe(visible, v.coord.State(v.active)) {
		return nil
	}
	return v.coord.RequestNextPage(v.active)
}

// SubmitFilter validates and applies next. A *ValidationError leaves everything unchanged.
func (v *View[T]) SubmitFilter(next models.FilterCriteria) (tea.Cmd, error) {
	changed, err := v.filter.SetFilter(next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, nil
	}
	return v.switchTo(), nil
}

// ResetFilter restores the default criteria
func (v *View[T]) ResetFilter() tea.Cmd {
	if !v.filter.Reset() {
		return nil
	}
	return v.switchTo()
}

// Retry re-requests the failed page of the active identity
func (v *View[T]) Retry() tea.Cmd {
	return v.coord.Retry(v.active)
}

// RefreshFromStart drops the loaded pages and reloads page 1
func (v *View[T]) RefreshFromStart() tea.Cmd {
	v.trigger.Detach()
	return v.coord.Refresh(v.active)
}

// Close detaches the trigger and releases the cache entry
func (v *View[T]) Close() {
	v.trigger.Detach()
	if v.mounted {
		v.coord.Release(v.active)
		v.mounted = false
	}
}

func (v *View[T]) switchTo() tea.Cmd {
	next := v.filter.Query()
	v.trigger.Detach()
	if !v.mounted {
		v.active = next.Identity
		return nil
	}
	v.coord.Acquire(next)
	v.coord.Release(v.active)
	v.active = next.Identity
	return v.coord.Ensure(v.active)
}

func (v *View[T]) sync() {
	if !v.mounted {
		v.trigger.Detach()
		return
	}
	v.trigger.Sync(v.HasMore())
}

// CurrentItems is every item loaded for the active identity, page 1 first
func (v *View[T]) CurrentItems() []T {
	return v.coord.Items(v.active)
}

func (v *View[T]) HasMore() bool {
	return v.coord.HasMore(v.active)
}

func (v *View[T]) IsLoading() bool {
	return v.coord.IsLoading(v.active)
}

func (v *View[T]) IsLoadingMore() bool {
	return v.coord.IsLoadingMore(v.active)
}

func (v *View[T]) LastError() error {
	return v.coord.LastError(v.active)
}

func (v *View[T]) State() FetchState {
	return v.coord.State(v.active)
}

func (v *View[T]) Total() int {
	return v.coord.Total(v.active)
}

func (v *View[T]) Criteria() models.FilterCriteria {
	return v.filter.Criteria()
}

func (v *View[T]) Identity() Identity {
	return v.active
}

func (v *View[T]) Schema() Schema {
	return v.filter.Schema()
}

// Mounted reports whether Init ran and Close did not
func (v *View[T]) Mounted() bool {
	return v.mounted
}

// TriggerAttached reports whether the sentinel is observed
func (v *View[T]) TriggerAttached() bool {
	return v.trigger.Attached()
}
