package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
)

// SentinelRows is how close to the last loaded row the cursor must be for the
// end-of-list sentinel to count as visible.
const SentinelRows = 3

// ListModel renders one listing.View as a table and feeds cursor movement to its trigger.
type ListModel[T any] struct {
	title   string
	view    *listing.View[T]
	columns []ColumnSpec
	toRow   func(T) table.Row

	table   table.Model
	spinner spinner.Model
	layout  Layout
	filter  *filterForm
	notice  string // last local message (invalid filter, nothing to retry)
}

// NewListModel wraps view. toRow renders one item.
func NewListModel[T any](title string, view *listing.View[T], columns []ColumnSpec, toRow func(T) table.Row, layout Layout) *ListModel[T] {
	t := table.New(
		table.WithColumns(CalculateColumns(columns, layout.TableWidth)),
		table.WithFocused(true),
		table.WithHeight(layout.TableHeight),
	)
	ApplyTableStyles(&t)

	return &ListModel[T]{
		title:   title,
		view:    view,
		columns: columns,
		toRow:   toRow,
		table:   t,
		spinner: NewAppSpinner(),
		layout:  layout,
	}
}

// Init mounts the view and starts the spinner
func (m *ListModel[T]) Init() tea.Cmd {
	return tea.Batch(m.view.Init(), m.spinner.Tick)
}

// Update handles fetch results, spinner ticks and, while it is open, the filter form
func (m *ListModel[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listing.PageFetchedMsg[T]:
		cmd := m.view.Update(msg)
		m.syncRows()
		return tea.Batch(cmd, m.observeSentinel())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}

	if m.filter != nil {
		return m.updateFilter(msg)
	}
	return nil
}

// HandleKey processes a key for this list. handled is false for keys it does not own.
func (m *ListModel[T]) HandleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	if m.filter != nil {
		return m.updateFilter(msg), true
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, keys.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, keys.PageUp):
		m.table.MoveUp(m.table.Height() / 2)
	case key.Matches(msg, keys.PageDown):
		m.table.MoveDown(m.table.Height() / 2)
	case key.Matches(msg, keys.Top):
		m.table.GotoTop()
	case key.Matches(msg, keys.Bottom):
		m.table.GotoBottom()

	case key.Matches(msg, keys.Retry):
		m.notice = ""
		cmd = m.view.Retry()
		if cmd == nil {
			m.notice = "nothing to retry"
		}
		return cmd, true
	case key.Matches(msg, keys.Refresh):
		m.notice = ""
		cmd = m.view.RefreshFromStart()
		m.syncRows()
		return cmd, true
	case key.Matches(msg, keys.ResetFilter):
		m.notice = ""
		cmd = m.view.ResetFilter()
		m.syncRows()
		return cmd, true
	case key.Matches(msg, keys.Filter):
		return m.openFilter(), true

	default:
		return nil, false
	}
	return m.observeSentinel(), true
}

func (m *ListModel[T]) openFilter() tea.Cmd {
	m.notice = ""
	m.filter = newFilterForm("Filter "+strings.ToLower(m.title), m.view.Schema(), m.view.Criteria(), m.layout.InnerWidth)
	return m.filter.form.Init()
}

func (m *ListModel[T]) updateFilter(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.filter = nil
		return nil
	}

	model, cmd := m.filter.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		m.filter.form = form
	}

	switch m.filter.form.State {
	case huh.StateAborted:
		m.filter = nil
		return nil
	case huh.StateCompleted:
		criteria, err := m.filter.criteria()
		m.filter = nil
		if err != nil {
			m.notice = err.Error()
			return nil
		}
		return m.ApplyFilter(criteria)
	}
	return cmd
}

// ApplyFilter submits criteria to the view. An invalid filter leaves the list untouched.
func (m *ListModel[T]) ApplyFilter(criteria models.FilterCriteria) tea.Cmd {
	cmd, err := m.view.SubmitFilter(criteria)
	if err != nil {
		var verr *listing.ValidationError
		if errors.As(err, &verr) {
			m.notice = verr.Error()
		} else {
			m.notice = err.Error()
		}
		return nil
	}
	m.notice = ""
	m.syncRows()
	return cmd
}

// SentinelVisible reports whether the cursor is within SentinelRows of the last loaded row.
// A list shorter than SentinelRows counts as visible as soon as page 1 lands; the
// trigger only fires from an idle fetch state and detaches once nothing is left.
func (m *ListModel[T]) SentinelVisible() bool {
	n := len(m.table.Rows())
	return n > 0 && m.table.Cursor() >= n-SentinelRows
}

func (m *ListModel[T]) observeSentinel() tea.Cmd {
	return m.view.SentinelVisible(m.SentinelVisible())
}

// syncRows copies the view's items into the table, keeping the cursor in range
func (m *ListModel[T]) syncRows() {
	items := m.view.CurrentItems()
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = m.toRow(item)
	}
	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	m.table.SetCursor(max(cursor, 0))
}

// Resize applies a new layout
func (m *ListModel[T]) Resize(layout Layout) {
	m.layout = layout
	m.table.SetColumns(CalculateColumns(m.columns, layout.TableWidth))
	m.table.SetHeight(layout.TableHeight)
	if m.filter != nil {
		m.filter.form = m.filter.form.WithWidth(layout.InnerWidth)
	}
}

// Selected returns the item under the cursor
func (m *ListModel[T]) Selected() (T, bool) {
	var zero T
	items := m.view.CurrentItems()
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(items) {
		return zero, false
	}
	return items[cursor], true
}

// Editing reports whether the filter form has the keyboard
func (m *ListModel[T]) Editing() bool {
	return m.filter != nil
}

// Source is the list's view
func (m *ListModel[T]) Source() *listing.View[T] {
	return m.view
}

// Close releases the list's cache entry
func (m *ListModel[T]) Close() {
	m.view.Close()
}

// Render draws the list without the surrounding box
func (m *ListModel[T]) Render() string {
	if m.filter != nil {
		return m.filter.form.View()
	}

	var b strings.Builder
	b.WriteString(RenderTitle(m.title))
	b.WriteString("  ")
	b.WriteString(RenderDim(m.countLabel()))
	b.WriteString("\n")
	b.WriteString(RenderDim("filter: " + describeCriteria(m.view.Criteria())))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *ListModel[T]) countLabel() string {
	loaded := len(m.table.Rows())
	if m.view.State() == listing.StateFetching && loaded == 0 {
		return "loading"
	}
	return fmt.Sprintf("%d of %d", loaded, m.view.Total())
}

func (m *ListModel[T]) statusLine() string {
	switch {
	case m.notice != "":
		return RenderError(m.notice)
	case m.view.LastError() != nil:
		return RenderError(m.view.LastError().Error() + "  (r: retry)")
	case m.view.IsLoadingMore():
		return m.spinner.View() + " " + RenderProgress("Loading more...")
	case m.view.IsLoading():
		return m.spinner.View() + " " + RenderProgress("Loading...")
	case m.view.State() == listing.StateExhausted && len(m.table.Rows()) == 0:
		return RenderDim("No results")
	case !m.view.HasMore() && len(m.table.Rows()) > 0:
		return RenderDim("End of list")
	default:
		return ""
	}
}

// describeCriteria renders criteria as field=value pairs in field order
func describeCriteria(c models.FilterCriteria) string {
	fields := c.Fields()
	if len(fields) == 0 {
		return "none"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + "=" + c.Get(f)
	}
	return strings.Join(parts, " ")
}
