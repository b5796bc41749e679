package mailbox

import (
	"testing"

	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
	"github.com/stretchr/testify/require"
)

func seq(events []event.Event) []event.Event {
	for i := range events {
		events[i].SequenceNumber = int64(i + 1)
	}
	return events
}

// TestMailboxRoundTrip drives a sent/acknowledged/completed cycle between
// two agents, viewed from both sides.
func TestMailboxRoundTrip(t *testing.T) {
	const wf = "W"
	sent := event.New(wf, event.TypeAgentMessageSent, map[string]any{
		"from": "A", "to": "B", "subject": "hi", "body": "body",
		"message_id": "m1", "correlation_id": "c1",
	})
	events := seq([]event.Event{
		sent,
		event.New(wf, event.TypeAgentMessageAcknowledged, map[string]any{
			"correlation_id": sent.EventID, "from": "B",
		}),
		event.New(wf, event.TypeAgentMessageCompleted, map[string]any{
			"correlation_id": sent.EventID, "from": "A", "success": true,
		}),
	})

	stateA, err := projection.Fold[State](NewBuilder("A"), events)
	require.NoError(t, err)
	require.Empty(t, stateA.Outbox)
	require.Len(t, stateA.ConversationHistory, 1)
	require.True(t, stateA.ConversationHistory[0].Success)

	stateB, err := projection.Fold[State](NewBuilder("B"), events)
	require.NoError(t, err)
	require.Len(t, stateB.Inbox, 1)
	require.True(t, stateB.Inbox[0].Acknowledged)
}

// TestAcknowledgedIdempotent checks that two acks with the same
// correlation_id yield the same acknowledged_at (first wins).
func TestAcknowledgedIdempotent(t *testing.T) {
	const wf = "W"
	sent := event.New(wf, event.TypeAgentMessageSent, map[string]any{
		"from": "A", "to": "B", "subject": "hi", "body": "body", "message_id": "m1",
	})
	events := seq([]event.Event{
		sent,
		event.New(wf, event.TypeAgentMessageAcknowledged, map[string]any{
			"correlation_id": sent.EventID, "from": "B",
		}),
		event.New(wf, event.TypeAgentMessageAcknowledged, map[string]any{
			"correlation_id": sent.EventID, "from": "B",
		}),
	})

	state, err := projection.Fold[State](NewBuilder("B"), events)
	require.NoError(t, err)
	require.Len(t, state.Inbox, 1)
	require.True(t, state.Inbox[0].Acknowledged)
	require.Equal(t, events[1].Timestamp, *state.Inbox[0].AcknowledgedAt)
}

func TestSentIgnoredForUninvolvedAgent(t *testing.T) {
	events := seq([]event.Event{
		event.New("W", event.TypeAgentMessageSent, map[string]any{
			"from": "A", "to": "B", "subject": "hi", "body": "body", "message_id": "m1",
		}),
	})
	state, err := projection.Fold[State](NewBuilder("C"), events)
	require.NoError(t, err)
	require.Empty(t, state.Inbox)
	require.Empty(t, state.Outbox)
}
