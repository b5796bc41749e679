package store

import (
	"encoding/json"
	"fmt"

	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
)

// isMarkerSnapshot reports whether snap is the generic auto-snapshot marker
// rather than a real fold of a concrete projection's state — those two
// shapes are incompatible, and using a marker as a rebuild starting point
// would silently produce a half-populated, wrong state instead of erroring.
// When no concrete projection is attached via AttachAutoSnapshotProjection,
// auto-snapshots are always markers and RebuildProjection falls back to a
// full replay.
func isMarkerSnapshot(snap event.Snapshot) bool {
	kind, ok := snap.State["snapshot_type"].(string)
	return ok && kind == "auto"
}

// RebuildProjection loads workflowID's latest snapshot (if any) as the
// starting state and lower bound, or b.InitialState() if there is none,
// then folds every event with sequence_number greater than that bound
// through b in ascending order. The result is byte-identical to folding
// b.InitialState() across every event for workflowID in order — with or
// without a snapshot present.
//
// This is a package-level generic function, not a method, because Go does
// not allow methods to introduce their own type parameters.
func RebuildProjection[S any](s *Store, workflowID string, b projection.Builder[S]) (S, error) {
	var lowerBound int64
	state := b.InitialState()
	if snap, ok := s.GetSnapshot(workflowID); ok && !isMarkerSnapshot(snap) {
		decoded, err := decodeState[S](snap.State)
		if err != nil {
			return state, err
		}
		state = decoded
		lowerBound = snap.SequenceNumber
	}

	events, err := s.GetEvents(workflowID, QueryOptions{Order: Asc})
	if err != nil {
		return state, err
	}
	for _, e := range events {
		if e.SequenceNumber <= lowerBound {
			continue
		}
		state, err = projection.Apply(b, state, e)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// decodeState round-trips a snapshot's generic map[string]any payload into
// the builder's concrete state type S via the canonical JSON codec, since
// sqlite only ever stores the untyped tree.
func decodeState[S any](raw map[string]any) (S, error) {
	var zero S
	encoded, err := event.EncodeData(raw)
	if err != nil {
		return zero, err
	}
	var out S
	if err := json.Unmarshal(encoded, &out); err != nil {
		return zero, fmt.Errorf("store: decode snapshot state: %w", err)
	}
	return out, nil
}

// encodeState round-trips a concrete projection state back into the
// untyped tree snapshots are stored as.
func encodeState[S any](state S) (map[string]any, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot state: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: encode snapshot state: %w", err)
	}
	return m, nil
}

// AttachAutoSnapshotProjection wires a concrete projection builder into the
// auto-snapshot trigger: once attached, every auto-snapshot captures b's
// actual folded state instead of the generic count-only marker. Only one
// projection can be attached at a time; attaching again replaces it.
func AttachAutoSnapshotProjection[S any](s *Store, b projection.Builder[S]) {
	s.autoSnapshotFold = func(workflowID string, seq int64) (event.Snapshot, error) {
		state, err := RebuildProjection(s, workflowID, b)
		if err != nil {
			return event.Snapshot{}, err
		}
		encoded, err := encodeState(state)
		if err != nil {
			return event.Snapshot{}, err
		}
		return event.Snapshot{
			WorkflowID:     workflowID,
			SequenceNumber: seq,
			State:          encoded,
		}, nil
	}
}
