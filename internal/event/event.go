// Package event defines the immutable record type that is the only
// persistent truth of the runtime: every workflow, feature, test, commit,
// mailbox, and note change is recorded as one of these before anything else
// is allowed to observe it.
package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the closed taxonomy of event kinds the projection engine knows how
// to dispatch. Unknown values reach the engine only through bugs.
type Type string

const (
	TypeWorkflowStarted   Type = "workflow.started"
	TypeWorkflowCompleted Type = "workflow.completed"
	TypeWorkflowFailed    Type = "workflow.failed"
	TypePhaseChanged      Type = "phase.changed"

	TypeWorktreeCreated Type = "worktree.created"
	TypeWorktreeActive  Type = "worktree.active"
	TypeWorktreeMerged  Type = "worktree.merged"
	TypeWorktreeDeleted Type = "worktree.deleted"

	TypeFeaturePlanned   Type = "feature.planned"
	TypeFeatureStarted   Type = "feature.started"
	TypeFeatureCompleted Type = "feature.completed"
	TypeFeatureFailed    Type = "feature.failed"

	TypeIterationStarted Type = "iteration.started"

	TypeTestsStarted Type = "tests.started"
	TypeTestsPassed  Type = "tests.passed"
	TypeTestsFailed  Type = "tests.failed"

	TypeCommitCreated Type = "commit.created"
	TypeCommitFailed  Type = "commit.failed"

	TypeAgentMessageSent         Type = "agent.message.sent"
	TypeAgentMessageAcknowledged Type = "agent.message.acknowledged"
	TypeAgentMessageCompleted    Type = "agent.message.completed"

	TypeNoteObservation    Type = "agent.note.observation"
	TypeNoteLearning       Type = "agent.note.learning"
	TypeNoteDecision       Type = "agent.note.decision"
	TypeNoteWarning        Type = "agent.note.warning"
	TypeNoteAccomplishment Type = "agent.note.accomplishment"
	TypeNoteContext        Type = "agent.note.context"
	TypeNoteTodo           Type = "agent.note.todo"
	TypeNoteQuestion       Type = "agent.note.question"
	TypeNoteIdea           Type = "agent.note.idea"
	TypeNoteReflection     Type = "agent.note.reflection"
)

// KnownTypes lists every member of the closed taxonomy, used to validate
// event_type at append time and to drive exhaustiveness checks in tests.
var KnownTypes = []Type{
	TypeWorkflowStarted, TypeWorkflowCompleted, TypeWorkflowFailed, TypePhaseChanged,
	TypeWorktreeCreated, TypeWorktreeActive, TypeWorktreeMerged, TypeWorktreeDeleted,
	TypeFeaturePlanned, TypeFeatureStarted, TypeFeatureCompleted, TypeFeatureFailed,
	TypeIterationStarted,
	TypeTestsStarted, TypeTestsPassed, TypeTestsFailed,
	TypeCommitCreated, TypeCommitFailed,
	TypeAgentMessageSent, TypeAgentMessageAcknowledged, TypeAgentMessageCompleted,
	TypeNoteObservation, TypeNoteLearning, TypeNoteDecision, TypeNoteWarning,
	TypeNoteAccomplishment, TypeNoteContext, TypeNoteTodo, TypeNoteQuestion,
	TypeNoteIdea, TypeNoteReflection,
}

// IsNoteType reports whether t is one of the ten agent.note.* categories.
func (t Type) IsNoteType() bool {
	switch t {
	case TypeNoteObservation, TypeNoteLearning, TypeNoteDecision, TypeNoteWarning,
		TypeNoteAccomplishment, TypeNoteContext, TypeNoteTodo, TypeNoteQuestion,
		TypeNoteIdea, TypeNoteReflection:
		return true
	}
	return false
}

// Category returns the note category string ("observation", "learning", ...)
// for note event types, or "" for anything else.
func (t Type) Category() string {
	if !t.IsNoteType() {
		return ""
	}
	return strings.TrimPrefix(string(t), "agent.note.")
}

// valid reports whether t is a member of the closed taxonomy.
func (t Type) valid() bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Event is an immutable record of one state change. Once committed, none of
// its fields ever change; sequence_number is assigned by the store on commit.
type Event struct {
	SequenceNumber int64          `json:"sequence_number"`
	EventID        string         `json:"event_id"`
	WorkflowID     string         `json:"workflow_id"`
	EventType      Type           `json:"event_type"`
	Timestamp      time.Time      `json:"timestamp"`
	Data           map[string]any `json:"data"`
}

// New builds an Event ready for Store.Append: it assigns a fresh event_id
// and timestamp, but leaves SequenceNumber at zero for the store to assign.
func New(workflowID string, eventType Type, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		EventID:    uuid.NewString(),
		WorkflowID: workflowID,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		Data:       data,
	}
}

// Validate enforces the core event invariants: workflow_id and event_type
// are non-empty after trimming, event_type is a member of the closed
// taxonomy, and data is a finite tree (no cycles are possible by
// construction since Go maps/slices of concrete values cannot self-reference
// except through pointers, which canonical JSON encoding would reject).
func (e Event) Validate() error {
	if strings.TrimSpace(e.WorkflowID) == "" {
		return fmt.Errorf("%w: workflow_id must not be empty", ErrArgument)
	}
	if strings.TrimSpace(string(e.EventType)) == "" {
		return fmt.Errorf("%w: event_type must not be empty", ErrArgument)
	}
	if !e.EventType.valid() {
		return fmt.Errorf("%w: unknown event_type %q", ErrArgument, e.EventType)
	}
	if e.EventID == "" {
		return fmt.Errorf("%w: event_id must not be empty", ErrArgument)
	}
	return nil
}
