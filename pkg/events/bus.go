// Package events implements the explicit observer bus the editor uses in
// place of framework-level change detection. Components subscribe to field
// and selection notifications; mutating code publishes them after batched
// commits, never per-write.
package events

// FieldChanged reports that committed frame data for a field changed within
// [Start, End] (inclusive, absolute frame indices).
type FieldChanged struct {
	Field string
	Start int
	End   int
}

// SelectionChanged reports that the keyframe selection or range selection
// for a field changed.
type SelectionChanged struct {
	Field string
}

// UndoStackChanged reports that the undo/redo stacks changed depth.
type UndoStackChanged struct {
	CanUndo bool
	CanRedo bool
}

// Event is any notification published on the bus.
type Event any

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine; the editor runs on one event-loop goroutine.
type Handler func(Event)

type subscription struct {
	fn Handler
}

// Bus is a minimal synchronous publish/subscribe hub.
//
// The zero value is usable.
type Bus struct {
	subs []*subscription
}

// Subscribe registers a handler for all events and returns a removal
// function. Removal is safe to call more than once.
func (b *Bus) Subscribe(fn Handler) func() {
	sub := &subscription{fn: fn}
	b.subs = append(b.subs, sub)
	return func() {
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber in registration order.
func (b *Bus) Publish(ev Event) {
	// Snapshot so handlers can unsubscribe during delivery.
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		s.fn(ev)
	}
}
