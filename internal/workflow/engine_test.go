package workflow

import (
	"testing"

	"github.com/jeanclaude/jc/internal/event"
	"github.com/stretchr/testify/require"
)

// fakeAppender is an in-memory stand-in for store.Store, sufficient to drive
// Engine without touching sqlite.
type fakeAppender struct {
	events []event.Event
}

func (f *fakeAppender) Append(e event.Event) (event.Event, error) {
	e.SequenceNumber = int64(len(f.events) + 1)
	f.events = append(f.events, e)
	return e, nil
}

func TestEngine_HappyPath(t *testing.T) {
	store := &fakeAppender{}
	eng := NewEngine(store, Builder{}.InitialState())

	require.NoError(t, eng.Start("W1", "demo", "feature", "JC-1"))
	require.NoError(t, eng.TransitionPhase(PhaseImplementing))
	require.NoError(t, eng.AddFeature("auth", "login flow"))
	require.NoError(t, eng.StartFeature("auth"))
	require.NoError(t, eng.RecordIteration())
	require.NoError(t, eng.RecordTestOutcome(TestsPassed))
	require.NoError(t, eng.RecordCommitOutcome("abc123", ""))
	require.NoError(t, eng.CompleteFeature("auth", true))
	require.NoError(t, eng.MarkComplete(1500, 0.25))

	state := eng.State()
	require.Equal(t, PhaseComplete, state.Phase)
	require.True(t, state.IsComplete())
	require.Equal(t, 1, state.CurrentFeatureIndex)
	require.Equal(t, 1, state.IterationCount)
	require.Len(t, store.events, 9)
}

func TestEngine_RecordIterationIncrementsCount(t *testing.T) {
	store := &fakeAppender{}
	eng := NewEngine(store, Builder{}.InitialState())
	require.NoError(t, eng.Start("W1", "demo", "feature", ""))

	require.NoError(t, eng.RecordIteration())
	require.NoError(t, eng.RecordIteration())
	require.Equal(t, 2, eng.State().IterationCount)
}

// TestEngine_InvalidTransitionEmitsNothing checks that an illegal phase
// transition is rejected and the log is untouched.
func TestEngine_InvalidTransitionEmitsNothing(t *testing.T) {
	store := &fakeAppender{}
	eng := NewEngine(store, Builder{}.InitialState())
	require.NoError(t, eng.Start("W1", "demo", "feature", ""))

	before := len(store.events)
	err := eng.TransitionPhase(PhaseVerifying)
	require.Error(t, err)
	require.True(t, IsInvalidTransition(err))
	require.Equal(t, before, len(store.events))
	require.Equal(t, PhasePlanning, eng.State().Phase)
}

func TestEngine_UnknownFeatureRejected(t *testing.T) {
	store := &fakeAppender{}
	eng := NewEngine(store, Builder{}.InitialState())
	require.NoError(t, eng.Start("W1", "demo", "feature", ""))

	err := eng.StartFeature("ghost")
	require.Error(t, err)
	require.True(t, IsUnknownFeature(err))
}

func TestEngine_MarkCompleteRequiresImplementingOrVerifying(t *testing.T) {
	store := &fakeAppender{}
	eng := NewEngine(store, Builder{}.InitialState())
	require.NoError(t, eng.Start("W1", "demo", "feature", ""))

	err := eng.MarkComplete(0, 0)
	require.Error(t, err)
	require.True(t, IsInvalidTransition(err))
}
