package mailbox

import (
	"testing"

	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
	"github.com/stretchr/testify/require"
)

func TestGetThreadSummary_Completed(t *testing.T) {
	const wf = "W"
	sent := event.New(wf, event.TypeAgentMessageSent, map[string]any{
		"from": "A", "to": "B", "subject": "hi", "body": "b", "message_id": "m1", "correlation_id": "c1",
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

	state, err := projection.Fold[State](NewBuilder("A"), events)
	require.NoError(t, err)

	summary := GetThreadSummary(state, sent.EventID)
	require.Equal(t, ThreadCompleted, summary.Status)
	require.ElementsMatch(t, []string{"A", "B"}, summary.Participants)
	require.Empty(t, summary.PendingActions)
}

func TestGetThreadSummary_NotFound(t *testing.T) {
	summary := GetThreadSummary(State{}, "nope")
	require.Equal(t, ThreadNotFound, summary.Status)
}

func TestValidateThreadConsistency_Clean(t *testing.T) {
	const wf = "W"
	sent := event.New(wf, event.TypeAgentMessageSent, map[string]any{
		"from": "A", "to": "B", "subject": "hi", "body": "b", "message_id": "m1",
	})
	events := seq([]event.Event{sent})
	state, err := projection.Fold[State](NewBuilder("B"), events)
	require.NoError(t, err)

	report := ValidateThreadConsistency(state)
	require.True(t, report.Valid)
	require.Equal(t, 1, report.Statistics.TotalThreads)
}

// TestValidateThreadConsistency_OrphanedAcknowledgment drives an
// acknowledgment whose correlation_id never matches a sent message in B's
// inbox, and expects ValidateThreadConsistency to flag it.
func TestValidateThreadConsistency_OrphanedAcknowledgment(t *testing.T) {
	const wf = "W"
	events := seq([]event.Event{
		event.New(wf, event.TypeAgentMessageAcknowledged, map[string]any{
			"correlation_id": "never-sent", "from": "B",
		}),
	})
	state, err := projection.Fold[State](NewBuilder("B"), events)
	require.NoError(t, err)
	require.Len(t, state.OrphanedAcknowledgments, 1)
	require.Equal(t, "never-sent", state.OrphanedAcknowledgments[0].CorrelationID)

	report := ValidateThreadConsistency(state)
	require.False(t, report.Valid)
	require.Equal(t, 1, report.Statistics.OrphanedThreads)
	require.Len(t, report.Inconsistencies, 1)
}
