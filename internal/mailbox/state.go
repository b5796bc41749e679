// Package mailbox materializes an agent's inbox, outbox, and conversation
// history by folding the agent.message.* event family. The event log is the
// single source of truth; this projection is always reconstructible from it.
package mailbox

import "time"

// Priority mirrors the closed set of message priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// InboxMessage is a message received by the agent this projection is
// materialized for.
type InboxMessage struct {
	EventID        string     `json:"event_id"`
	MessageID      string     `json:"message_id"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Priority       Priority   `json:"priority"`
	CreatedAt      time.Time  `json:"created_at"`
	ReceivedAt     time.Time  `json:"received_at"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CorrelationID  string     `json:"correlation_id,omitempty"`
}

// OutboxMessage is a message sent by the agent this projection is
// materialized for, pending completion.
type OutboxMessage struct {
	EventID       string     `json:"event_id"`
	MessageID     string     `json:"message_id"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	Priority      Priority   `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        time.Time  `json:"sent_at"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Success       *bool      `json:"success,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

// OrphanedAcknowledgment records an agent.message.acknowledged event whose
// correlation_id matched no inbox entry for CurrentAgentID at fold time —
// an acknowledgment for a message this projection never saw sent.
type OrphanedAcknowledgment struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	From          string    `json:"from"`
	At            time.Time `json:"at"`
}

// ConversationMessage is a completed message promoted out of the outbox into
// history. CorrelationID is mandatory here.
type ConversationMessage struct {
	EventID       string    `json:"event_id"`
	MessageID     string    `json:"message_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Priority      Priority  `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
	SentAt        time.Time `json:"sent_at"`
	CompletedAt   time.Time `json:"completed_at"`
	Success       bool      `json:"success"`
	CorrelationID string    `json:"correlation_id"`
}

// State is the per-agent mailbox projection. CurrentAgentID is fixed at
// construction and never changes across a fold.
type State struct {
	CurrentAgentID          string                   `json:"current_agent_id"`
	Inbox                   []InboxMessage           `json:"inbox"`
	Outbox                  []OutboxMessage          `json:"outbox"`
	ConversationHistory     []ConversationMessage    `json:"conversation_history"`
	OrphanedAcknowledgments []OrphanedAcknowledgment `json:"orphaned_acknowledgments,omitempty"`
}

func (s State) inboxIndexByEventID(eventID string) int {
	for i, m := range s.Inbox {
		if m.EventID == eventID {
			return i
		}
	}
	return -1
}

func (s State) outboxIndexByEventID(eventID string) int {
	for i, m := range s.Outbox {
		if m.EventID == eventID {
			return i
		}
	}
	return -1
}
