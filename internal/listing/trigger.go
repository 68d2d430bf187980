package listing

// Trigger turns sentinel visibility into load-more signals.
//
// It is attached only while the list has more to load. It fires on a
// not-visible -> visible edge, and only when the identity is idle; being fetching
// is what debounces it, not time.
type Trigger struct {
	attached bool
	visible  bool
}

// Sync attaches the trigger while hasMore holds and detaches it otherwise
func (t *Trigger) Sync(hasMore bool) {
	if !hasMore {
		t.Detach()
		return
	}
	if !t.attached {
		t.attached = true
		t.visible = false
	}
}

// Detach stops observing. Observe returns false until the next Sync(true).
func (t *Trigger) Detach() {
	t.attached = false
	t.visible = false
}

// Attached reports whether the sentinel is being observed
func (t *Trigger) Attached() bool {
	return t.attached
}

// Rearm forgets the last visibility so a sentinel still on screen after a load counts
// as a fresh edge on the next observation.
func (t *Trigger) Rearm() {
	t.visible = false
}

// Observe records the sentinel visibility and reports whether to request the next page.
func (t *Trigger) Observe(visible bool, state FetchState) bool {
	if !t.attached {
		return false
	}
	rising := visible && !t.visible
	if state != StateIdle {
		// keep the edge for when the current fetch completes
		return false
	}
	t.visible = visible
	return rising
}
