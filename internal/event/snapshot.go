package event

import "time"

// Snapshot is a materialized projection at a known sequence number, used to
// skip replay. At most one snapshot is retained per workflow at rest; a new
// save overwrites the prior one in place.
type Snapshot struct {
	WorkflowID     string         `json:"workflow_id"`
	SequenceNumber int64          `json:"sequence_number"`
	State          map[string]any `json:"state"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Validate enforces the core snapshot invariants: sequence_number is
// non-negative and state is a structured tree (never nil once saved).
func (s Snapshot) Validate() error {
	if s.WorkflowID == "" {
		return ErrArgument
	}
	if s.SequenceNumber < 0 {
		return ErrArgument
	}
	if s.State == nil {
		return ErrArgument
	}
	return nil
}
