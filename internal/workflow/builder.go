package workflow

import (
	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
)

// Builder materializes WorkflowState by folding the workflow, feature, test,
// and commit event families. Worktree, mailbox, and note events are left to
// their own builders; WorkflowBuilder treats them as no-ops.
type Builder struct{}

var _ projection.Builder[State] = Builder{}

// InitialState returns the empty, not-yet-started workflow state.
func (Builder) InitialState() State {
	return State{Phase: PhasePlanning, Features: []Feature{}, Commits: []string{}}
}

// Handlers returns the dispatch table for every event type WorkflowBuilder
// cares about.
func (Builder) Handlers() map[event.Type]projection.Handler[State] {
	return map[event.Type]projection.Handler[State]{
		event.TypeWorkflowStarted:   applyWorkflowStarted,
		event.TypeWorkflowCompleted: applyWorkflowCompleted,
		event.TypeWorkflowFailed:    applyWorkflowFailed,
		event.TypePhaseChanged:      applyPhaseChanged,

		event.TypeFeaturePlanned:   applyFeaturePlanned,
		event.TypeFeatureStarted:   applyFeatureStarted,
		event.TypeFeatureCompleted: applyFeatureCompleted,
		event.TypeFeatureFailed:    applyFeatureFailed,

		event.TypeIterationStarted: applyIterationStarted,

		event.TypeTestsStarted: applyTestsStarted,
		event.TypeTestsPassed:  applyTestsPassed,
		event.TypeTestsFailed:  applyTestsFailed,

		event.TypeCommitCreated: applyCommitCreated,
		event.TypeCommitFailed:  applyCommitFailed,
	}
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func numF(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func boolv(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func applyWorkflowStarted(s State, evt event.Event) (State, error) {
	s.WorkflowID = evt.WorkflowID
	s.WorkflowName = str(evt.Data, "workflow_name")
	s.WorkflowType = str(evt.Data, "workflow_type")
	s.ExternalTaskRef = str(evt.Data, "external_task_ref")
	s.Phase = PhasePlanning
	s.Started = true
	return s, nil
}

func applyWorkflowCompleted(s State, evt event.Event) (State, error) {
	s.Phase = PhaseComplete
	s.TotalDurationMS = int64(numF(evt.Data, "duration_ms"))
	s.TotalCostUSD = numF(evt.Data, "total_cost")
	return s, nil
}

func applyWorkflowFailed(s State, evt event.Event) (State, error) {
	s.FailureError = str(evt.Data, "error")
	return s, nil
}

func applyPhaseChanged(s State, evt event.Event) (State, error) {
	s.Phase = Phase(str(evt.Data, "to"))
	return s, nil
}

func applyFeaturePlanned(s State, evt event.Event) (State, error) {
	name := str(evt.Data, "name")
	if s.featureIndex(name) >= 0 {
		return s, nil
	}
	s.Features = append(append([]Feature{}, s.Features...), Feature{
		Name:        name,
		Description: str(evt.Data, "description"),
		Status:      FeatureNotStarted,
	})
	return s, nil
}

func applyFeatureStarted(s State, evt event.Event) (State, error) {
	return mutateFeature(s, str(evt.Data, "name"), func(f *Feature) {
		f.Status = FeatureInProgress
		ts := evt.Timestamp
		f.StartedAt = &ts
	})
}

func applyFeatureCompleted(s State, evt event.Event) (State, error) {
	name := str(evt.Data, "name")
	s, err := mutateFeature(s, name, func(f *Feature) {
		f.Status = FeatureCompleted
		f.TestsPassing = boolv(evt.Data, "tests_passing")
		ts := evt.Timestamp
		f.CompletedAt = &ts
	})
	if err != nil {
		return s, err
	}
	if idx := s.featureIndex(name); idx == s.CurrentFeatureIndex {
		s.CurrentFeatureIndex++
	}
	return s, nil
}

func applyFeatureFailed(s State, evt event.Event) (State, error) {
	return mutateFeature(s, str(evt.Data, "name"), func(f *Feature) {
		f.Status = FeatureFailed
		f.FailureReason = str(evt.Data, "error")
	})
}

func applyIterationStarted(s State, evt event.Event) (State, error) {
	s.IterationCount++
	return s, nil
}

func applyTestsStarted(s State, evt event.Event) (State, error) {
	s.VerificationCount++
	return s, nil
}

func applyTestsPassed(s State, evt event.Event) (State, error) {
	s.LastVerificationPass = true
	return s, nil
}

func applyTestsFailed(s State, evt event.Event) (State, error) {
	s.LastVerificationPass = false
	return s, nil
}

func applyCommitCreated(s State, evt event.Event) (State, error) {
	sha := str(evt.Data, "sha")
	commits := append([]string{}, s.Commits...)
	s.Commits = append(commits, sha)
	return s, nil
}

func applyCommitFailed(s State, evt event.Event) (State, error) {
	return s, nil
}

// mutateFeature returns a new State with f.Name's feature replaced by the
// result of applying mutate to a copy of it. Unknown feature names are
// ignored: the workflow engine already validated existence before the event
// was ever emitted, so replay must not fail on a name it cannot find.
func mutateFeature(s State, name string, mutate func(f *Feature)) (State, error) {
	idx := s.featureIndex(name)
	if idx < 0 {
		return s, nil
	}
	features := append([]Feature{}, s.Features...)
	f := features[idx]
	mutate(&f)
	features[idx] = f
	s.Features = features
	return s, nil
}
