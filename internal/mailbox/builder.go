package mailbox

import (
	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
)

// Builder materializes the per-agent mailbox view. It is always
// parameterized by CurrentAgentID: an event only affects the projection if
// that agent participates.
type Builder struct {
	CurrentAgentID string
}

// NewBuilder returns a Builder materializing agentID's mailbox.
func NewBuilder(agentID string) Builder {
	return Builder{CurrentAgentID: agentID}
}

var _ projection.Builder[State] = Builder{}

// InitialState returns an empty mailbox for CurrentAgentID.
func (b Builder) InitialState() State {
	return State{CurrentAgentID: b.CurrentAgentID}
}

// Handlers returns the dispatch table for the three agent.message.* events.
// Every other event type is left unhandled, which projection.Apply treats as
// a no-op for known taxonomy members: builders may return the same object
// unchanged when they don't care about an event.
func (b Builder) Handlers() map[event.Type]projection.Handler[State] {
	return map[event.Type]projection.Handler[State]{
		event.TypeAgentMessageSent:         b.applySent,
		event.TypeAgentMessageAcknowledged: b.applyAcknowledged,
		event.TypeAgentMessageCompleted:    b.applyCompleted,
	}
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func boolv(data map[string]any, key string) (bool, bool) {
	v, ok := data[key].(bool)
	return v, ok
}

func (b Builder) applySent(s State, evt event.Event) (State, error) {
	from := str(evt.Data, "from")
	to := str(evt.Data, "to")
	priority := Priority(str(evt.Data, "priority"))
	if priority == "" {
		priority = PriorityNormal
	}
	messageID := str(evt.Data, "message_id")
	correlationID := str(evt.Data, "correlation_id")

	switch b.CurrentAgentID {
	case to:
		inbox := append([]InboxMessage{}, s.Inbox...)
		inbox = append(inbox, InboxMessage{
			EventID:       evt.EventID,
			MessageID:     messageID,
			From:          from,
			To:            to,
			Subject:       str(evt.Data, "subject"),
			Body:          str(evt.Data, "body"),
			Priority:      priority,
			CreatedAt:     evt.Timestamp,
			ReceivedAt:    evt.Timestamp,
			CorrelationID: correlationID,
		})
		s.Inbox = inbox
	case from:
		outbox := append([]OutboxMessage{}, s.Outbox...)
		outbox = append(outbox, OutboxMessage{
			EventID:       evt.EventID,
			MessageID:     messageID,
			From:          from,
			To:            to,
			Subject:       str(evt.Data, "subject"),
			Body:          str(evt.Data, "body"),
			Priority:      priority,
			CreatedAt:     evt.Timestamp,
			SentAt:        evt.Timestamp,
			CorrelationID: correlationID,
		})
		s.Outbox = outbox
	}
	return s, nil
}

func (b Builder) applyAcknowledged(s State, evt event.Event) (State, error) {
	from := str(evt.Data, "from")
	if from != b.CurrentAgentID {
		return s, nil
	}
	correlationID := str(evt.Data, "correlation_id")
	idx := s.inboxIndexByEventID(correlationID)
	if idx < 0 {
		orphans := append([]OrphanedAcknowledgment{}, s.OrphanedAcknowledgments...)
		orphans = append(orphans, OrphanedAcknowledgment{
			EventID:       evt.EventID,
			CorrelationID: correlationID,
			From:          from,
			At:            evt.Timestamp,
		})
		s.OrphanedAcknowledgments = orphans
		return s, nil
	}
	if s.Inbox[idx].Acknowledged {
		return s, nil
	}
	inbox := append([]InboxMessage{}, s.Inbox...)
	msg := inbox[idx]
	msg.Acknowledged = true
	ts := evt.Timestamp
	msg.AcknowledgedAt = &ts
	inbox[idx] = msg
	s.Inbox = inbox
	return s, nil
}

// applyCompleted removes the matching outbox entry and promotes it to
// conversation history. correlation_id resolution: the completion event's
// own correlation_id field wins if present, otherwise the outbox entry's
// stored correlation_id is inherited.
func (b Builder) applyCompleted(s State, evt event.Event) (State, error) {
	from := str(evt.Data, "from")
	if from != b.CurrentAgentID {
		return s, nil
	}
	correlationID := str(evt.Data, "correlation_id")
	idx := s.outboxIndexByEventID(correlationID)
	if idx < 0 {
		return s, nil
	}
	entry := s.Outbox[idx]

	success, _ := boolv(evt.Data, "success")
	finalCorrelationID := str(evt.Data, "correlation_id")
	if finalCorrelationID == "" {
		finalCorrelationID = entry.CorrelationID
	}

	outbox := make([]OutboxMessage, 0, len(s.Outbox)-1)
	outbox = append(outbox, s.Outbox[:idx]...)
	outbox = append(outbox, s.Outbox[idx+1:]...)
	s.Outbox = outbox

	history := append([]ConversationMessage{}, s.ConversationHistory...)
	history = append(history, ConversationMessage{
		EventID:       entry.EventID,
		MessageID:     entry.MessageID,
		From:          entry.From,
		To:            entry.To,
		Subject:       entry.Subject,
		Body:          entry.Body,
		Priority:      entry.Priority,
		CreatedAt:     entry.CreatedAt,
		SentAt:        entry.SentAt,
		CompletedAt:   evt.Timestamp,
		Success:       success,
		CorrelationID: finalCorrelationID,
	})
	s.ConversationHistory = history
	return s, nil
}
