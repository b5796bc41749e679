package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jeanclaude/jc/internal/event"
)

// Order selects ascending or descending event ordering for GetEvents.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// QueryOptions narrows a GetEvents call. EventType, Limit, and Offset are
// optional (zero values mean "unset"); Order defaults to Asc.
type QueryOptions struct {
	EventType event.Type
	Order     Order
	Limit     int
	Offset    int
}

// GetEvents returns events for workflowID, optionally filtered by event
// type, ordered by timestamp with sequence_number breaking ties. Unknown
// workflows yield an empty slice, never an error.
func (s *Store) GetEvents(workflowID string, opts QueryOptions) ([]event.Event, error) {
	if strings.TrimSpace(workflowID) == "" {
		return nil, fmt.Errorf("%w: workflow_id must not be empty", event.ErrArgument)
	}
	order := opts.Order
	if order == "" {
		order = Asc
	}
	if order != Asc && order != Desc {
		return nil, fmt.Errorf("%w: order must be %q or %q", event.ErrArgument, Asc, Desc)
	}

	query := `SELECT sequence_number, workflow_id, event_id, event_type, timestamp, data
		FROM events WHERE workflow_id = ?`
	args := []any{workflowID}
	if opts.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, string(opts.EventType))
	}
	dir := "ASC"
	if order == Desc {
		dir = "DESC"
	}
	query += fmt.Sprintf(` ORDER BY timestamp %s, sequence_number %s`, dir, dir)
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			e       event.Event
			et      string
			ts      string
			dataRaw string
		)
		if err := rows.Scan(&e.SequenceNumber, &e.WorkflowID, &e.EventID, &et, &ts, &dataRaw); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		e.EventType = event.Type(et)
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("store: parse timestamp: %w", err)
		}
		e.Timestamp = parsed
		data, err := event.DecodeData([]byte(dataRaw))
		if err != nil {
			return nil, err
		}
		e.Data = data
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}

// countEvents returns the total number of committed events for workflowID,
// used to drive the auto-snapshot trigger.
func (s *Store) countEvents(workflowID string) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE workflow_id = ?`, workflowID).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("store: count events: %w", err)
	}
	return n, nil
}
