package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
	"github.com/jeanclaude/jc/internal/workflow"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppend_DurableAndReadableAfterCommit(t *testing.T) {
	s := openTestStore(t)
	e := event.New("w1", event.TypeWorkflowStarted, map[string]any{"name": "demo"})

	committed, err := s.Append(e)
	require.NoError(t, err)
	require.NotZero(t, committed.SequenceNumber)

	got, err := s.GetEvents("w1", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, committed.EventID, got[0].EventID)
	require.Equal(t, "demo", got[0].Data["name"])
}

func TestAppend_MonotonicSequenceAcrossSuccessfulAppends(t *testing.T) {
	s := openTestStore(t)
	a, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
	require.NoError(t, err)
	b, err := s.Append(event.New("w1", event.TypePhaseChanged, nil))
	require.NoError(t, err)
	require.Less(t, a.SequenceNumber, b.SequenceNumber)
}

func TestAppend_RejectsInvalidEventWithoutPersisting(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Append(event.New("", event.TypeWorkflowStarted, nil))
	require.Error(t, err)

	got, err := s.GetEvents("w1", QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAppendBatch_AllOrNothing(t *testing.T) {
	s := openTestStore(t)
	events := []event.Event{
		event.New("w1", event.TypeWorkflowStarted, nil),
		event.New("", event.TypePhaseChanged, nil), // invalid: empty workflow id
	}
	_, err := s.AppendBatch(events)
	require.Error(t, err)

	got, err := s.GetEvents("w1", QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGetEvents_UnknownWorkflowYieldsEmptyNotError(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetEvents("nonexistent", QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGetEvents_FiltersByEventType(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
	require.NoError(t, err)
	_, err = s.Append(event.New("w1", event.TypePhaseChanged, nil))
	require.NoError(t, err)

	got, err := s.GetEvents("w1", QueryOptions{EventType: event.TypePhaseChanged})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, event.TypePhaseChanged, got[0].EventType)
}

func TestSnapshot_SaveAndGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	snap := event.Snapshot{WorkflowID: "w1", SequenceNumber: 5, State: map[string]any{"x": 1.0}}
	require.NoError(t, s.SaveSnapshot(snap))

	got, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.Equal(t, int64(5), got.SequenceNumber)
	require.Equal(t, 1.0, got.State["x"])
}

func TestSnapshot_SavingTwiceOverwritesInPlace(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveSnapshot(event.Snapshot{WorkflowID: "w1", SequenceNumber: 1, State: map[string]any{}}))
	require.NoError(t, s.SaveSnapshot(event.Snapshot{WorkflowID: "w1", SequenceNumber: 2, State: map[string]any{}}))

	got, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.Equal(t, int64(2), got.SequenceNumber)
}

func TestGetSnapshot_AbsentReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok := s.GetSnapshot("w1")
	require.False(t, ok)
}

func TestSubscribe_ReceivesCommittedEventsInOrder(t *testing.T) {
	s := openTestStore(t)
	var mu sync.Mutex
	var seen []event.Type
	s.Subscribe(func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.EventType)
	})

	_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
	require.NoError(t, err)
	_, err = s.Append(event.New("w1", event.TypePhaseChanged, nil))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []event.Type{event.TypeWorkflowStarted, event.TypePhaseChanged}, seen)
}

func TestSubscribe_PanickingSubscriberIsIsolated(t *testing.T) {
	s := openTestStore(t)
	s.Subscribe(func(e event.Event) { panic("boom") })

	var called bool
	s.Subscribe(func(e event.Event) { called = true })

	_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
	require.NoError(t, err)
	require.True(t, called)
}

func TestUnsubscribe_IsIdempotent(t *testing.T) {
	s := openTestStore(t)
	id := s.Subscribe(func(e event.Event) {})
	require.True(t, s.Unsubscribe(id))
	require.False(t, s.Unsubscribe(id))
	require.False(t, s.Unsubscribe("never-registered"))
}

type sumState struct {
	Count int `json:"count"`
}

type sumBuilder struct{}

func (sumBuilder) InitialState() sumState { return sumState{} }

func (sumBuilder) Handlers() map[event.Type]projection.Handler[sumState] {
	return map[event.Type]projection.Handler[sumState]{
		event.TypeWorkflowStarted: func(s sumState, evt event.Event) (sumState, error) {
			s.Count++
			return s, nil
		},
	}
}

func TestRebuildProjection_EqualsFoldWithoutSnapshot(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
		require.NoError(t, err)
	}

	rebuilt, err := RebuildProjection[sumState](s, "w1", sumBuilder{})
	require.NoError(t, err)

	events, err := s.GetEvents("w1", QueryOptions{Order: Asc})
	require.NoError(t, err)
	folded, err := projection.Fold[sumState](sumBuilder{}, events)
	require.NoError(t, err)

	if diff := cmp.Diff(folded, rebuilt); diff != "" {
		t.Fatalf("rebuilt state diverges from a full fold (-folded +rebuilt):\n%s", diff)
	}
	require.Equal(t, 5, rebuilt.Count)
}

// TestRebuildProjection_EqualsFoldAcrossASnapshotBoundary exercises the
// "with a snapshot" half of replay equivalence: folding a real projection's
// struct (not the toy counter above) must land on exactly the same state
// whether or not a snapshot sits partway through the event stream.
func TestRebuildProjection_EqualsFoldAcrossASnapshotBoundary(t *testing.T) {
	s := openTestStore(t)
	events := []event.Event{
		event.New("w1", event.TypeWorkflowStarted, map[string]any{"workflow_name": "demo", "workflow_type": "feature"}),
		event.New("w1", event.TypeFeaturePlanned, map[string]any{"name": "f1", "description": "first"}),
		event.New("w1", event.TypeFeatureStarted, map[string]any{"name": "f1"}),
		event.New("w1", event.TypeFeatureCompleted, map[string]any{"name": "f1", "tests_passing": true}),
		event.New("w1", event.TypePhaseChanged, map[string]any{"from": "planning", "to": "implementing"}),
	}
	for _, e := range events {
		_, err := s.Append(e)
		require.NoError(t, err)
	}

	fullFold, err := RebuildProjection[workflow.State](s, "w1", workflow.Builder{})
	require.NoError(t, err)

	committed, err := s.GetEvents("w1", QueryOptions{Order: Asc})
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(event.Snapshot{
		WorkflowID:     "w1",
		SequenceNumber: committed[2].SequenceNumber,
		State:          map[string]any{"workflow_id": "w1", "total_events": 3, "last_event_sequence": 3, "snapshot_type": "auto"},
	}))

	withSnapshot, err := RebuildProjection[workflow.State](s, "w1", workflow.Builder{})
	require.NoError(t, err)

	if diff := cmp.Diff(fullFold, withSnapshot); diff != "" {
		t.Fatalf("rebuild with a marker snapshot present diverges from a full replay (-noSnapshot +withSnapshot):\n%s", diff)
	}
}

// TestRebuildProjection_UsesRealSnapshotAsLowerBound exercises the
// lower-bound-skip path: once a non-marker snapshot is attached via
// AttachAutoSnapshotProjection, RebuildProjection must fold only the events
// committed after it and still land on the same state cmp would get folding
// every event from scratch.
func TestRebuildProjection_UsesRealSnapshotAsLowerBound(t *testing.T) {
	s := openTestStore(t)
	AttachAutoSnapshotProjection[workflow.State](s, workflow.Builder{})

	_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, map[string]any{"workflow_name": "demo", "workflow_type": "feature"}))
	require.NoError(t, err)
	for i := 0; i < autoSnapshotMultiple-1; i++ {
		_, err := s.Append(event.New("w1", event.TypeFeaturePlanned, map[string]any{"name": uniqueName(i), "description": "d"}))
		require.NoError(t, err)
	}

	snap, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.False(t, isMarkerSnapshot(snap))

	_, err = s.Append(event.New("w1", event.TypePhaseChanged, map[string]any{"from": "planning", "to": "implementing"}))
	require.NoError(t, err)

	withSnapshot, err := RebuildProjection[workflow.State](s, "w1", workflow.Builder{})
	require.NoError(t, err)

	events, err := s.GetEvents("w1", QueryOptions{Order: Asc})
	require.NoError(t, err)
	fromScratch, err := projection.Fold[workflow.State](workflow.Builder{}, events)
	require.NoError(t, err)

	if diff := cmp.Diff(fromScratch, withSnapshot); diff != "" {
		t.Fatalf("rebuild from a real snapshot diverges from folding every event from scratch (-fromScratch +withSnapshot):\n%s", diff)
	}
}

func uniqueName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}

func TestAttachAutoSnapshotProjection_SnapshotAtCadenceCapturesFoldedState(t *testing.T) {
	s := openTestStore(t)
	AttachAutoSnapshotProjection[sumState](s, sumBuilder{})

	for i := 0; i < autoSnapshotMultiple; i++ {
		_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
		require.NoError(t, err)
	}

	snap, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.False(t, isMarkerSnapshot(snap))
	require.Equal(t, float64(autoSnapshotMultiple), snap.State["count"])
}

func TestMaybeAutoSnapshot_NoProjectionAttachedUsesMarker(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < autoSnapshotMultiple; i++ {
		_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
		require.NoError(t, err)
	}
	snap, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.True(t, isMarkerSnapshot(snap))
}

func TestWithSnapshotCadence_OverridesDefaultInterval(t *testing.T) {
	const cadence = 3
	s, err := Open(filepath.Join(t.TempDir(), "events.db"), WithSnapshotCadence(cadence))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok := s.GetSnapshot("w1")
	require.False(t, ok)

	for i := 0; i < cadence-1; i++ {
		_, err := s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
		require.NoError(t, err)
	}
	_, ok = s.GetSnapshot("w1")
	require.False(t, ok, "no snapshot expected before the configured cadence is reached")

	_, err = s.Append(event.New("w1", event.TypeWorkflowStarted, nil))
	require.NoError(t, err)

	snap, ok := s.GetSnapshot("w1")
	require.True(t, ok)
	require.True(t, isMarkerSnapshot(snap))
	require.Equal(t, int64(cadence), snap.SequenceNumber)
}

func TestWithSnapshotCadence_ZeroOrNegativeLeavesDefaultInEffect(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "events.db"), WithSnapshotCadence(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.Equal(t, autoSnapshotMultiple, s.cadence())

	s2, err := Open(filepath.Join(t.TempDir(), "events.db"), WithSnapshotCadence(-5))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })
	require.Equal(t, autoSnapshotMultiple, s2.cadence())
}
