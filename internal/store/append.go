package store

import (
	"database/sql"
	"fmt"

	"github.com/jeanclaude/jc/internal/event"
)

// Append validates e, assigns the next sequence_number, and persists it in
// a single durable transaction. Subscribers are notified synchronously only
// after durability is established. It returns an error for any validation
// or I/O failure; on I/O failure the transaction is rolled back and no
// event is ever visible to readers or subscribers.
func (s *Store) Append(e event.Event) (event.Event, error) {
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	data, err := event.EncodeData(e.Data)
	if err != nil {
		return event.Event{}, err
	}

	s.writeMu.Lock()
	committed, err := s.insertOne(e, data)
	s.writeMu.Unlock()
	if err != nil {
		return event.Event{}, err
	}

	s.maybeAutoSnapshot(committed.WorkflowID)
	s.notify(committed)
	return committed, nil
}

// AppendBatch persists events as a single all-or-nothing transaction. If any
// event fails validation the whole batch is rejected and nothing is written.
// Subscribers are notified, in order, only after the batch commits.
func (s *Store) AppendBatch(events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	committed, err := func() ([]event.Event, error) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("store: begin batch: %w", err)
		}
		committed := make([]event.Event, 0, len(events))
		for _, e := range events {
			data, err := event.EncodeData(e.Data)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			row, err := s.insertOneTx(tx, e, data)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			committed = append(committed, row)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("store: commit batch: %w", err)
		}
		return committed, nil
	}()
	if err != nil {
		return nil, err
	}

	touched := map[string]struct{}{}
	for _, e := range committed {
		touched[e.WorkflowID] = struct{}{}
	}
	for wf := range touched {
		s.maybeAutoSnapshot(wf)
	}
	for _, e := range committed {
		s.notify(e)
	}
	return committed, nil
}

func (s *Store) insertOne(e event.Event, data []byte) (event.Event, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return event.Event{}, fmt.Errorf("store: begin: %w", err)
	}
	row, err := s.insertOneTx(tx, e, data)
	if err != nil {
		tx.Rollback()
		return event.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("store: commit: %w", err)
	}
	return row, nil
}

func (s *Store) insertOneTx(tx *sql.Tx, e event.Event, data []byte) (event.Event, error) {
	res, err := tx.Exec(
		`INSERT INTO events (workflow_id, event_id, event_type, timestamp, data) VALUES (?, ?, ?, ?, ?)`,
		e.WorkflowID, e.EventID, string(e.EventType), e.Timestamp.Format(timeLayout), string(data),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("store: insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return event.Event{}, fmt.Errorf("store: read sequence number: %w", err)
	}
	e.SequenceNumber = id
	return e, nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
