package mailbox

import "time"

// ThreadMessages groups every message sharing a correlation_id across inbox,
// outbox, and history.
type ThreadMessages struct {
	Inbox   []InboxMessage        `json:"inbox"`
	Outbox  []OutboxMessage       `json:"outbox"`
	History []ConversationMessage `json:"history"`
	All     int                   `json:"all"`
}

// GetMessagesByCorrelationID collects every message in state carrying cid,
// whether still pending (inbox/outbox) or already completed (history). A
// message matches on either its correlation_id or, for the originating
// entry, its event_id — since acknowledgments and completions key off the
// originating event_id rather than the business correlation_id.
func GetMessagesByCorrelationID(s State, cid string) ThreadMessages {
	var out ThreadMessages
	for _, m := range s.Inbox {
		if m.CorrelationID == cid || m.EventID == cid {
			out.Inbox = append(out.Inbox, m)
		}
	}
	for _, m := range s.Outbox {
		if m.CorrelationID == cid || m.EventID == cid {
			out.Outbox = append(out.Outbox, m)
		}
	}
	for _, m := range s.ConversationHistory {
		if m.CorrelationID == cid || m.EventID == cid {
			out.History = append(out.History, m)
		}
	}
	out.All = len(out.Inbox) + len(out.Outbox) + len(out.History)
	return out
}

// ThreadStatus classifies a thread's lifecycle stage.
type ThreadStatus string

const (
	ThreadActive    ThreadStatus = "active"
	ThreadCompleted ThreadStatus = "completed"
	ThreadNotFound  ThreadStatus = "not_found"
)

// ThreadEvent is one entry in a thread's chronological timeline.
type ThreadEvent struct {
	Kind string    `json:"kind"` // "sent", "acknowledged", "completed"
	At   time.Time `json:"at"`
}

// ThreadSummary condenses a correlation_id's full history for display.
type ThreadSummary struct {
	Participants   []string      `json:"participants"`
	MessageCount   int           `json:"message_count"`
	Timeline       []ThreadEvent `json:"timeline"`
	Status         ThreadStatus  `json:"status"`
	PendingActions []string      `json:"pending_actions"`
}

// GetThreadSummary reports a human-oriented summary of a correlation_id's
// thread: who's involved, how many messages, and what's still outstanding.
func GetThreadSummary(s State, cid string) ThreadSummary {
	msgs := GetMessagesByCorrelationID(s, cid)
	if msgs.All == 0 {
		return ThreadSummary{Status: ThreadNotFound}
	}

	seen := map[string]bool{}
	var participants []string
	addParticipant := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			participants = append(participants, id)
		}
	}

	var timeline []ThreadEvent
	var pending []string

	for _, m := range msgs.Inbox {
		addParticipant(m.From)
		addParticipant(m.To)
		timeline = append(timeline, ThreadEvent{Kind: "sent", At: m.CreatedAt})
		if m.Acknowledged {
			timeline = append(timeline, ThreadEvent{Kind: "acknowledged", At: *m.AcknowledgedAt})
		} else {
			pending = append(pending, "awaiting acknowledgment from "+m.To)
		}
	}
	for _, m := range msgs.Outbox {
		addParticipant(m.From)
		addParticipant(m.To)
		timeline = append(timeline, ThreadEvent{Kind: "sent", At: m.CreatedAt})
		pending = append(pending, "awaiting completion to "+m.To)
	}
	for _, m := range msgs.History {
		addParticipant(m.From)
		addParticipant(m.To)
		timeline = append(timeline, ThreadEvent{Kind: "sent", At: m.CreatedAt})
		timeline = append(timeline, ThreadEvent{Kind: "completed", At: m.CompletedAt})
	}

	status := ThreadActive
	if len(msgs.Outbox) == 0 && len(msgs.History) > 0 {
		allAcked := true
		for _, m := range msgs.Inbox {
			if !m.Acknowledged {
				allAcked = false
				break
			}
		}
		if allAcked {
			status = ThreadCompleted
		}
	}

	return ThreadSummary{
		Participants:   participants,
		MessageCount:   msgs.All,
		Timeline:       timeline,
		Status:         status,
		PendingActions: pending,
	}
}

// ThreadStatistics summarizes consistency-check coverage across every
// thread a mailbox projection has observed.
type ThreadStatistics struct {
	TotalThreads    int `json:"total_threads"`
	TotalMessages   int `json:"total_messages"`
	OrphanedThreads int `json:"orphaned_threads"`
}

// ConsistencyReport is the result of ValidateThreadConsistency.
type ConsistencyReport struct {
	Valid           bool             `json:"valid"`
	Inconsistencies []string         `json:"inconsistencies"`
	Statistics      ThreadStatistics `json:"thread_statistics"`
}

// ValidateThreadConsistency audits state for structural problems: an
// agent.message.acknowledged event whose correlation_id matched no inbox
// entry at fold time counts as orphaned — the acknowledgment references a
// message this projection never recorded as sent.
func ValidateThreadConsistency(s State) ConsistencyReport {
	report := ConsistencyReport{Valid: true}
	threads := map[string]bool{}
	orphaned := len(s.OrphanedAcknowledgments)

	for _, o := range s.OrphanedAcknowledgments {
		report.Inconsistencies = append(report.Inconsistencies,
			"acknowledgment "+o.EventID+" references correlation_id "+o.CorrelationID+" with no matching inbox entry")
	}

	for _, m := range s.Inbox {
		cid := m.CorrelationID
		if cid == "" {
			cid = m.EventID
		}
		threads[cid] = true
	}
	for _, m := range s.Outbox {
		cid := m.CorrelationID
		if cid == "" {
			cid = m.EventID
		}
		threads[cid] = true
	}
	for _, m := range s.ConversationHistory {
		threads[m.CorrelationID] = true
	}

	report.Statistics = ThreadStatistics{
		TotalThreads:    len(threads),
		TotalMessages:   len(s.Inbox) + len(s.Outbox) + len(s.ConversationHistory),
		OrphanedThreads: orphaned,
	}
	if orphaned > 0 {
		report.Valid = false
	}
	return report
}
