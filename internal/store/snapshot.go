package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jeanclaude/jc/internal/event"
	"golang.org/x/sync/errgroup"
)

// SaveSnapshot upserts a snapshot keyed by workflow_id; at most one is kept
// at rest per workflow. Saving the same snapshot twice has the same
// observable effect as saving it once.
func (s *Store) SaveSnapshot(snap event.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	data, err := event.EncodeData(snap.State)
	if err != nil {
		return err
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO snapshots (workflow_id, sequence_number, state, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET
		   sequence_number = excluded.sequence_number,
		   state = excluded.state,
		   created_at = excluded.created_at`,
		snap.WorkflowID, snap.SequenceNumber, string(data), snap.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the latest snapshot for workflowID, or (zero, false)
// if none exists. A corrupted payload is logged and treated as absent
// rather than returned or propagated as an error.
func (s *Store) GetSnapshot(workflowID string) (event.Snapshot, bool) {
	var (
		seq       int64
		stateRaw  string
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT sequence_number, state, created_at FROM snapshots WHERE workflow_id = ?`,
		workflowID,
	).Scan(&seq, &stateRaw, &createdAt)
	if err == sql.ErrNoRows {
		return event.Snapshot{}, false
	}
	if err != nil {
		s.logger.Printf("store: get snapshot %s: %v", workflowID, err)
		return event.Snapshot{}, false
	}
	state, err := event.DecodeData([]byte(stateRaw))
	if err != nil {
		s.logger.Printf("store: corrupted snapshot %s: %v", workflowID, err)
		return event.Snapshot{}, false
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		s.logger.Printf("store: corrupted snapshot timestamp %s: %v", workflowID, err)
		return event.Snapshot{}, false
	}
	return event.Snapshot{
		WorkflowID:     workflowID,
		SequenceNumber: seq,
		State:          state,
		CreatedAt:      ts,
	}, true
}

// autoSnapshotMultiple is the default event-count cadence at which a marker
// snapshot is produced automatically after a successful append, used when
// a Store is opened without WithSnapshotCadence. The count is per-workflow
// and counts every committed event for that workflow.
const autoSnapshotMultiple = 100

// cadence returns the configured snapshot cadence, falling back to
// autoSnapshotMultiple when the Store was opened without WithSnapshotCadence.
func (s *Store) cadence() int {
	if s.snapshotCadence > 0 {
		return s.snapshotCadence
	}
	return autoSnapshotMultiple
}

// maybeAutoSnapshot runs the auto-snapshot trigger outside the append's
// critical section, on a best-effort worker: any failure, including a
// panic, is isolated and logged, and never surfaced to the caller of
// Append. It runs on an errgroup-managed goroutine and is waited on before
// returning, so the snapshot is observable immediately after Append returns.
func (s *Store) maybeAutoSnapshot(workflowID string) {
	var g errgroup.Group
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Printf("store: auto-snapshot panic for %s: %v", workflowID, r)
			}
		}()

		s.snapMu.Lock()
		defer s.snapMu.Unlock()

		count, countErr := s.countEvents(workflowID)
		if countErr != nil {
			s.logger.Printf("store: auto-snapshot count failed for %s: %v", workflowID, countErr)
			return nil
		}
		multiple := s.cadence()
		if count <= 0 || count%multiple != 0 {
			return nil
		}

		var lastSeq int64
		if seqErr := s.db.QueryRow(`SELECT MAX(sequence_number) FROM events WHERE workflow_id = ?`, workflowID).Scan(&lastSeq); seqErr != nil {
			s.logger.Printf("store: auto-snapshot last sequence failed for %s: %v", workflowID, seqErr)
			return nil
		}

		snap := event.Snapshot{
			WorkflowID:     workflowID,
			SequenceNumber: lastSeq,
			State: map[string]any{
				"workflow_id":         workflowID,
				"total_events":        count,
				"last_event_sequence": lastSeq,
				"snapshot_type":       "auto",
				"created_reason":      fmt.Sprintf("automatic snapshot at %d events", count),
			},
			CreatedAt: time.Now().UTC(),
		}
		if s.autoSnapshotFold != nil {
			folded, foldErr := s.autoSnapshotFold(workflowID, lastSeq)
			if foldErr != nil {
				s.logger.Printf("store: auto-snapshot projection fold failed for %s: %v, falling back to marker", workflowID, foldErr)
			} else {
				folded.CreatedAt = time.Now().UTC()
				snap = folded
			}
		}
		if saveErr := s.SaveSnapshot(snap); saveErr != nil {
			s.logger.Printf("store: auto-snapshot save failed for %s: %v", workflowID, saveErr)
		}
		return nil
	})
	_ = g.Wait()
}
