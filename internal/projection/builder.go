// Package projection defines the generic fold (state, event) -> state that
// every read model in this runtime is built from, plus the dispatch
// contract concrete builders (workflow, mailbox, notes) implement.
package projection

import (
	"fmt"

	"github.com/jeanclaude/jc/internal/event"
)

// Handler folds one event of a known type into state, returning a new state.
// It must be pure: the input state is never mutated in place.
type Handler[S any] func(state S, evt event.Event) (S, error)

// Builder is the contract every concrete projection (WorkflowBuilder,
// MailboxBuilder, NotesBuilder) satisfies. Handlers returns one entry per
// event type the builder cares about; event types present in the closed
// taxonomy (event.KnownTypes) but absent from the map are treated as
// no-ops by Apply, never as an error — only a event_type outside the
// closed taxonomy entirely is a dispatch error, and that can only reach
// Apply as a programmer bug (the store rejects unknown types at append).
type Builder[S any] interface {
	InitialState() S
	Handlers() map[event.Type]Handler[S]
}

// ErrUnknownEventType is returned by Apply when an event carries a type
// outside the closed taxonomy. This can only happen if a bug lets an
// invalid event_type past Event.Validate and into the store.
var ErrUnknownEventType = fmt.Errorf("projection: unknown event type")

// Apply dispatches evt to the handler b registers for evt.EventType. A
// builder that does not register a handler for a known event type simply
// leaves state unchanged — e.g. MailboxBuilder ignores workflow.started.
// Apply never mutates state; callers must treat the return value as the
// only authoritative result.
func Apply[S any](b Builder[S], state S, evt event.Event) (S, error) {
	handlers := b.Handlers()
	if h, ok := handlers[evt.EventType]; ok {
		return h(state, evt)
	}
	for _, known := range event.KnownTypes {
		if known == evt.EventType {
			return state, nil
		}
	}
	return state, fmt.Errorf("%w: %q", ErrUnknownEventType, evt.EventType)
}

// Fold replays a full ordered event stream through b starting from
// b.InitialState(), used by tests to assert replay equivalence against
// Store.RebuildProjection.
func Fold[S any](b Builder[S], events []event.Event) (S, error) {
	state := b.InitialState()
	for _, evt := range events {
		var err error
		state, err = Apply(b, state, evt)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}
