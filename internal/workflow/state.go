// Package workflow implements the canonical WorkflowState projection and the
// mutating engine that drives it: phase transitions, feature lifecycle, and
// the counters the evaluator later consumes.
package workflow

import "time"

// Phase is one node in the workflow's directed phase graph.
type Phase string

const (
	PhasePlanning     Phase = "planning"
	PhaseImplementing Phase = "implementing"
	PhaseVerifying    Phase = "verifying"
	PhaseComplete     Phase = "complete"
)

// phaseTransitions defines the valid moves from each phase. An empty slice
// means the phase is terminal. Modeled on the orchestrator's hat-transition
// table: a fixed map from "from" to allowed "to" phases, checked with
// slices.Contains rather than a switch.
var phaseTransitions = map[Phase][]Phase{
	PhasePlanning:     {PhaseImplementing},
	PhaseImplementing: {PhaseVerifying, PhaseComplete},
	PhaseVerifying:    {PhaseImplementing, PhaseComplete},
	PhaseComplete:     {},
}

// FeatureStatus is the lifecycle state of one feature within a workflow.
type FeatureStatus string

const (
	FeatureNotStarted FeatureStatus = "not_started"
	FeatureInProgress FeatureStatus = "in_progress"
	FeatureCompleted  FeatureStatus = "completed"
	FeatureFailed     FeatureStatus = "failed"
)

// Feature is one unit of work tracked by a workflow, in insertion order.
type Feature struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        FeatureStatus `json:"status"`
	TestsPassing  bool          `json:"tests_passing"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

// State is the canonical projection consumed by the CLI and the evaluator.
type State struct {
	WorkflowID           string    `json:"workflow_id"`
	WorkflowName         string    `json:"workflow_name"`
	WorkflowType         string    `json:"workflow_type"`
	ExternalTaskRef      string    `json:"external_task_ref,omitempty"`
	Phase                Phase     `json:"phase"`
	Features             []Feature `json:"features"`
	CurrentFeatureIndex  int       `json:"current_feature_index"`
	IterationCount       int       `json:"iteration_count"`
	TotalCostUSD         float64   `json:"total_cost_usd"`
	TotalDurationMS      int64     `json:"total_duration_ms"`
	VerificationCount    int       `json:"verification_count"`
	LastVerificationPass bool      `json:"last_verification_passed"`
	Commits              []string  `json:"commits"`
	FailureError         string    `json:"failure_error,omitempty"`
	Started              bool      `json:"started"`
}

// ProgressPercentage returns completed/total features, 0 if there are none.
func (s State) ProgressPercentage() float64 {
	total := len(s.Features)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, f := range s.Features {
		if f.Status == FeatureCompleted {
			completed++
		}
	}
	return float64(completed) / float64(total)
}

// IsComplete reports whether the workflow has reached its terminal success
// state: phase is complete and every feature finished successfully.
func (s State) IsComplete() bool {
	if s.Phase != PhaseComplete {
		return false
	}
	for _, f := range s.Features {
		if f.Status != FeatureCompleted {
			return false
		}
	}
	return true
}

// IsFailed reports whether the workflow is in a failed, non-retryable state:
// not complete, and at least one feature has failed.
func (s State) IsFailed() bool {
	if s.Phase == PhaseComplete {
		return false
	}
	for _, f := range s.Features {
		if f.Status == FeatureFailed {
			return true
		}
	}
	return false
}

func (s State) featureIndex(name string) int {
	for i, f := range s.Features {
		if f.Name == name {
			return i
		}
	}
	return -1
}
