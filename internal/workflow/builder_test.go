package workflow

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

// TestBuilder_FullWorkflowReplay folds the full lifecycle of a single
// feature and expects a complete, verified workflow.
func TestBuilder_FullWorkflowReplay(t *testing.T) {
	const wf = "W"
	events := seq([]event.Event{
		event.New(wf, event.TypeWorkflowStarted, map[string]any{"workflow_name": "demo"}),
		event.New(wf, event.TypeWorktreeCreated, map[string]any{"path": "/t/W", "branch": "f/W"}),
		event.New(wf, event.TypeFeaturePlanned, map[string]any{"name": "auth"}),
		event.New(wf, event.TypeFeatureStarted, map[string]any{"name": "auth"}),
		event.New(wf, event.TypeTestsPassed, nil),
		event.New(wf, event.TypeCommitCreated, map[string]any{"sha": "abc"}),
		event.New(wf, event.TypeFeatureCompleted, map[string]any{"name": "auth", "tests_passing": true}),
		event.New(wf, event.TypeWorkflowCompleted, map[string]any{"duration_ms": 1000, "total_cost": 0.5}),
	})

	state, err := projection.Fold[State](Builder{}, events)
	require.NoError(t, err)

	require.Equal(t, PhaseComplete, state.Phase)
	require.Len(t, state.Features, 1)
	require.Equal(t, "auth", state.Features[0].Name)
	require.Equal(t, FeatureCompleted, state.Features[0].Status)
	require.True(t, state.Features[0].TestsPassing)
	require.Equal(t, []string{"abc"}, state.Commits)
	require.True(t, state.IsComplete())
}

// TestBuilder_IgnoresUnrelatedEventTypes confirms mailbox and note events
// pass through WorkflowBuilder untouched rather than erroring.
func TestBuilder_IgnoresUnrelatedEventTypes(t *testing.T) {
	events := seq([]event.Event{
		event.New("W", event.TypeWorkflowStarted, nil),
		event.New("W", event.TypeAgentMessageSent, map[string]any{"from": "a", "to": "b"}),
		event.New("W", event.TypeNoteObservation, map[string]any{"title": "t"}),
	})
	_, err := projection.Fold[State](Builder{}, events)
	require.NoError(t, err)
}

func TestBuilder_IterationStartedIncrementsCount(t *testing.T) {
	events := seq([]event.Event{
		event.New("W", event.TypeWorkflowStarted, nil),
		event.New("W", event.TypeIterationStarted, nil),
		event.New("W", event.TypeIterationStarted, nil),
		event.New("W", event.TypeIterationStarted, nil),
	})
	state, err := projection.Fold[State](Builder{}, events)
	require.NoError(t, err)
	require.Equal(t, 3, state.IterationCount)
}
