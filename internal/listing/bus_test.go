package listing

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/assert/v2"
)

type pingMsg struct{ n int }

// TestBusPublishOrder delivers to every subscriber of the resource in order
func TestBusPublishOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int

	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe("sites", func(inv Invalidation) tea.Cmd {
			order = append(order, n)
			return func() tea.Msg { return pingMsg{n} }
		})
	}
	bus.Subscribe("certificates", func(Invalidation) tea.Cmd {
		t.Error("certificates subscriber got a sites invalidation")
		return nil
	})

	msgs := collect(bus.Publish(Invalidation{Resource: "sites"}))

	assert.Equal(t, order, []int{1, 2, 3})
	assert.Equal(t, len(msgs), 3)
}

// TestBusUnsubscribe stops delivery
func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsubscribe := bus.Subscribe("sites", func(Invalidation) tea.Cmd {
		calls++
		return nil
	})
	assert.Equal(t, bus.Subscribers("sites"), 1)

	bus.Publish(Invalidation{Resource: "sites"})
	unsubscribe()
	bus.Publish(Invalidation{Resource: "sites"})

	assert.Equal(t, calls, 1)
	assert.Equal(t, bus.Subscribers("sites"), 0)
}

// TestInvalidationMatches scopes by resource or by identity
func TestInvalidationMatches(t *testing.T) {
	a := nameQuery("a", 20).Identity
	b := nameQuery("b", 20).Identity

	all := Invalidation{Resource: "certificates"}
	one := Invalidation{Resource: "certificates", Identity: &a}
	other := Invalidation{Resource: "sites"}

	assert.Equal(t, all.Matches(a), true)
	assert.Equal(t, all.Matches(b), true)
	assert.Equal(t, one.Matches(a), true)
	assert.Equal(t, one.Matches(b), false)
	assert.Equal(t, other.Matches(a), false)
}

// TestInvalidatedMsgBuilders wraps resource and identity invalidations
func TestInvalidatedMsgBuilders(t *testing.T) {
	msg, ok := Invalidate("sites").(InvalidatedMsg)
	if !ok {
		t.Fatalf("Invalidate returned %T", Invalidate("sites"))
	}
	assert.Equal(t, msg.Resource, "sites")
	if msg.Identity != nil {
		t.Error("resource invalidation should not carry an identity")
	}

	id := nameQuery("a", 20).Identity
	msg = InvalidateIdentity(id).(InvalidatedMsg)
	assert.Equal(t, msg.Resource, "certificates")
	assert.Equal(t, *msg.Identity, id)
}
