package store

import (
	"github.com/google/uuid"
	"github.com/jeanclaude/jc/internal/event"
)

// Subscribe registers callback to receive every event this store commits
// from now on, in commit order. The returned subscription id is opaque.
func (s *Store) Subscribe(callback Subscriber) string {
	id := uuid.NewString()
	s.subMu.Lock()
	s.subs[id] = callback
	s.subMu.Unlock()
	return id
}

// Unsubscribe removes a subscription. It is idempotent: calling it twice
// with the same id, or with an id that was never registered, returns false
// without error.
func (s *Store) Unsubscribe(id string) bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return false
	}
	delete(s.subs, id)
	return true
}

// notify fan-outs a committed event to every current subscriber. Order of
// delivery across subscribers is unspecified; a panicking subscriber is
// isolated so it can never affect the commit or any other subscriber.
func (s *Store) notify(e event.Event) {
	s.subMu.Lock()
	callbacks := make([]Subscriber, 0, len(s.subs))
	for _, cb := range s.subs {
		callbacks = append(callbacks, cb)
	}
	s.subMu.Unlock()

	for _, cb := range callbacks {
		s.invokeSafely(cb, e)
	}
}

func (s *Store) invokeSafely(cb Subscriber, e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("store: subscriber panicked on event %s: %v", e.EventID, r)
		}
	}()
	cb(e)
}
