package notes

import (
	"github.com/jeanclaude/jc/internal/event"
	"github.com/jeanclaude/jc/internal/projection"
)

// Builder materializes the notes projection. All ten agent.note.* event
// types route through the same handler, parameterized by category, rather
// than one near-identical method per category.
type Builder struct{}

var _ projection.Builder[State] = Builder{}

// InitialState returns an empty notes projection with initialized index maps.
func (Builder) InitialState() State {
	return State{
		Notes:      []Note{},
		ByCategory: map[string][]int{},
		ByAgent:    map[string][]int{},
		ByTag:      map[string][]int{},
	}
}

// Handlers returns one dispatch entry per note category, each a closure
// over that category's name, plus the same addNote logic.
func (Builder) Handlers() map[event.Type]projection.Handler[State] {
	handlers := make(map[event.Type]projection.Handler[State], len(noteTypes))
	for _, t := range noteTypes {
		t := t
		handlers[t] = func(s State, evt event.Event) (State, error) {
			return addNote(s, t.Category(), evt), nil
		}
	}
	return handlers
}

var noteTypes = []event.Type{
	event.TypeNoteObservation, event.TypeNoteLearning, event.TypeNoteDecision,
	event.TypeNoteWarning, event.TypeNoteAccomplishment, event.TypeNoteContext,
	event.TypeNoteTodo, event.TypeNoteQuestion, event.TypeNoteIdea, event.TypeNoteReflection,
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func strSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// addNote appends evt as a Note of category, copying every slice/map it
// touches so the previous state is never mutated: projection handlers must
// be pure.
func addNote(s State, category string, evt event.Event) State {
	note := Note{
		Agent:          str(evt.Data, "agent"),
		Title:          str(evt.Data, "title"),
		Content:        str(evt.Data, "content"),
		Category:       category,
		Tags:           strSlice(evt.Data, "tags"),
		RelatedFile:    str(evt.Data, "related_file"),
		RelatedFeature: str(evt.Data, "related_feature"),
		CreatedAt:      evt.Timestamp,
	}

	notes := append([]Note{}, s.Notes...)
	notes = append(notes, note)
	idx := len(notes) - 1

	byCategory := copyIndex(s.ByCategory)
	byCategory[category] = append(append([]int{}, byCategory[category]...), idx)

	byAgent := copyIndex(s.ByAgent)
	if note.Agent != "" {
		byAgent[note.Agent] = append(append([]int{}, byAgent[note.Agent]...), idx)
	}

	byTag := copyIndex(s.ByTag)
	for _, tag := range note.Tags {
		byTag[tag] = append(append([]int{}, byTag[tag]...), idx)
	}

	return State{Notes: notes, ByCategory: byCategory, ByAgent: byAgent, ByTag: byTag}
}

func copyIndex(m map[string][]int) map[string][]int {
	out := make(map[string][]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
