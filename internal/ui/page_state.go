package ui

import (
	"time"
)

// statusTTL is how long a transient status line stays up
const statusTTL = 5 * time.Second

// PageState holds the layout and status line shared by the console screens.
type PageState struct {
	Layout       Layout
	StatusMsg    string
	StatusErr    bool
	StatusExpiry time.Time
	Quitting     bool
}

// NewPageState creates a PageState with the given layout.
func NewPageState(layout Layout) PageState {
	return PageState{Layout: layout}
}

// SetStatus sets a status message that expires after duration (0 = never).
func (p *PageState) SetStatus(msg string, duration time.Duration) {
	p.StatusMsg = msg
	p.StatusErr = false
	if duration > 0 {
		p.StatusExpiry = time.Now().Add(duration)
	} else {
		p.StatusExpiry = time.Time{}
	}
}

// SetError shows err on the status line until the next status
func (p *PageState) SetError(err error) {
	p.SetStatus(err.Error(), 0)
	p.StatusErr = true
}

// ClearExpiredStatus clears the status message if it has expired.
func (p *PageState) ClearExpiredStatus(now time.Time) {
	if !p.StatusExpiry.IsZero() && now.After(p.StatusExpiry) {
		p.StatusMsg = ""
		p.StatusErr = false
		p.StatusExpiry = time.Time{}
	}
}

// HasStatus returns true if there is a non-empty status message.
func (p *PageState) HasStatus() bool {
	return p.StatusMsg != ""
}

// RenderStatus renders the status line, errors in red
func (p *PageState) RenderStatus() string {
	if p.StatusErr {
		return RenderError(p.StatusMsg)
	}
	return RenderAccent(p.StatusMsg)
}

// UpdateLayout updates the layout and returns true if it changed.
func (p *PageState) UpdateLayout(width, height int) bool {
	next := NewLayout(width, height)
	if next != p.Layout {
		p.Layout = next
		return true
	}
	return false
}
