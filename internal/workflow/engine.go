package workflow

import (
	"fmt"

	"github.com/jeanclaude/jc/internal/event"
)

// appender is the subset of store.Store the engine needs; kept as an
// interface so tests can substitute a fake without touching sqlite.
type appender interface {
	Append(e event.Event) (event.Event, error)
}

// Engine is a mutating façade over the workflow projection: every operation
// either emits exactly one event and updates State, or fails without
// emitting anything and without changing State.
type Engine struct {
	store appender
	state State
}

// NewEngine wraps an already-open store for workflowID. The caller is
// expected to have rebuilt state via store.RebuildProjection beforehand when
// resuming an existing workflow; a fresh Engine starts from Builder{}'s
// initial state.
func NewEngine(s appender, initial State) *Engine {
	return &Engine{store: s, state: initial}
}

// State returns the engine's current in-memory projection.
func (e *Engine) State() State { return e.state }

func (e *Engine) emit(eventType event.Type, data map[string]any) error {
	evt := event.New(e.state.WorkflowID, eventType, data)
	committed, err := e.store.Append(evt)
	if err != nil {
		return err
	}
	applied, err := Builder{}.apply(e.state, committed)
	if err != nil {
		return err
	}
	e.state = applied
	return nil
}

// apply folds one event through Builder's Handlers table so Engine can fold
// its own emitted event; an event type without a handler leaves s unchanged.
func (b Builder) apply(s State, evt event.Event) (State, error) {
	h, ok := b.Handlers()[evt.EventType]
	if !ok {
		return s, nil
	}
	return h(s, evt)
}

// Start begins a new workflow: phase is set to planning and workflow.started
// is emitted. Calling Start on an already-started engine is rejected.
func (e *Engine) Start(workflowID, name, workflowType, externalTaskRef string) error {
	if e.state.Started {
		return fmt.Errorf("%w: workflow %s already started", event.ErrArgument, workflowID)
	}
	e.state.WorkflowID = workflowID
	return e.emit(event.TypeWorkflowStarted, map[string]any{
		"workflow_name":     name,
		"workflow_type":     workflowType,
		"external_task_ref": externalTaskRef,
	})
}

// TransitionPhase moves the workflow to a new phase if the phase graph
// allows it. On an invalid transition, returns *InvalidTransitionError and
// emits nothing.
func (e *Engine) TransitionPhase(to Phase) error {
	from := e.state.Phase
	if !ValidTransition(from, to) {
		return &InvalidTransitionError{WorkflowID: e.state.WorkflowID, From: from, To: to}
	}
	return e.emit(event.TypePhaseChanged, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
}

// AddFeature plans a new feature. The name must be unique within the
// workflow; re-planning an existing name is a no-op success, matching the
// projection's own idempotent handling of a duplicate feature.planned.
func (e *Engine) AddFeature(name, description string) error {
	return e.emit(event.TypeFeaturePlanned, map[string]any{
		"name":        name,
		"description": description,
	})
}

// RecordIteration marks the start of one attempt at driving the workflow
// forward (one pass through the agent executor). Called once per attempt
// regardless of which feature it targets, so the evaluator's iteration
// efficiency term reflects the workflow's real attempt count.
func (e *Engine) RecordIteration() error {
	return e.emit(event.TypeIterationStarted, nil)
}

// StartFeature marks a planned feature in_progress. The feature must already
// exist (have been planned) or this fails with *UnknownFeatureError.
func (e *Engine) StartFeature(name string) error {
	if e.state.featureIndex(name) < 0 {
		return &UnknownFeatureError{WorkflowID: e.state.WorkflowID, Name: name}
	}
	return e.emit(event.TypeFeatureStarted, map[string]any{"name": name})
}

// CompleteFeature marks name completed and advances current_feature_index
// when it was the feature at that position.
func (e *Engine) CompleteFeature(name string, testsPassing bool) error {
	if e.state.featureIndex(name) < 0 {
		return &UnknownFeatureError{WorkflowID: e.state.WorkflowID, Name: name}
	}
	return e.emit(event.TypeFeatureCompleted, map[string]any{
		"name":          name,
		"tests_passing": testsPassing,
	})
}

// FailFeature marks name failed with the given reason.
func (e *Engine) FailFeature(name, reason string) error {
	if e.state.featureIndex(name) < 0 {
		return &UnknownFeatureError{WorkflowID: e.state.WorkflowID, Name: name}
	}
	return e.emit(event.TypeFeatureFailed, map[string]any{
		"name":  name,
		"error": reason,
	})
}

// TestOutcome selects which of tests.started/passed/failed RecordTestOutcome
// emits.
type TestOutcome int

const (
	TestsStarted TestOutcome = iota
	TestsPassed
	TestsFailed
)

// RecordTestOutcome emits the matching tests.* event.
func (e *Engine) RecordTestOutcome(outcome TestOutcome) error {
	switch outcome {
	case TestsStarted:
		return e.emit(event.TypeTestsStarted, nil)
	case TestsPassed:
		return e.emit(event.TypeTestsPassed, nil)
	case TestsFailed:
		return e.emit(event.TypeTestsFailed, nil)
	default:
		return fmt.Errorf("%w: unknown test outcome %d", event.ErrArgument, outcome)
	}
}

// RecordCommitOutcome emits commit.created{sha} on success, or
// commit.failed{error} on failure.
func (e *Engine) RecordCommitOutcome(sha, failureReason string) error {
	if failureReason != "" {
		return e.emit(event.TypeCommitFailed, map[string]any{"error": failureReason})
	}
	return e.emit(event.TypeCommitCreated, map[string]any{"sha": sha})
}

// MarkComplete finishes the workflow successfully. Only legal from
// implementing or verifying, matching the phase graph's edges into complete.
func (e *Engine) MarkComplete(durationMS int64, totalCost float64) error {
	if e.state.Phase != PhaseImplementing && e.state.Phase != PhaseVerifying {
		return &InvalidTransitionError{WorkflowID: e.state.WorkflowID, From: e.state.Phase, To: PhaseComplete}
	}
	return e.emit(event.TypeWorkflowCompleted, map[string]any{
		"duration_ms": durationMS,
		"total_cost":  totalCost,
	})
}

// MarkFailed records a terminal failure without changing phase.
func (e *Engine) MarkFailed(reason string) error {
	return e.emit(event.TypeWorkflowFailed, map[string]any{
		"error": reason,
		"phase": string(e.state.Phase),
	})
}
