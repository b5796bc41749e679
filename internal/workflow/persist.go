package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ScratchDir returns the conventional per-workflow scratch directory under
// root: root/<workflow_id>/. This is advisory only: the event log remains
// the authoritative record, and resume must be able to re-derive the same
// state by replaying it alone.
func ScratchDir(root, workflowID string) string {
	return filepath.Join(root, workflowID)
}

const stateFileName = "state.json"

// SaveState writes state to its scratch directory's state.json, creating the
// directory if necessary.
func SaveState(root string, state State) error {
	dir := ScratchDir(root, state.WorkflowID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workflow: create scratch dir: %w", err)
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("workflow: marshal state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFileName), raw, 0o644); err != nil {
		return fmt.Errorf("workflow: write state file: %w", err)
	}
	return nil
}

// LoadState reads a previously saved scratch state for workflowID. Returns
// (zero, false) if no scratch file exists; this is never an authoritative
// failure since the event log can always re-derive state.
func LoadState(root, workflowID string) (State, bool) {
	raw, err := os.ReadFile(filepath.Join(ScratchDir(root, workflowID), stateFileName))
	if err != nil {
		return State{}, false
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, false
	}
	return s, true
}

// AppendLog appends one line of structured JSON to the optional
// line-delimited scratch log for workflowID, for human-readable tailing.
// Failure to write the advisory log is never fatal to the caller.
func AppendLog(root, workflowID string, entry map[string]any) error {
	dir := ScratchDir(root, workflowID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workflow: create scratch dir: %w", err)
	}
	if _, ok := entry["logged_at"]; !ok {
		entry["logged_at"] = time.Now().UTC()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("workflow: marshal log entry: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.ndjson"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("workflow: open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("workflow: write log entry: %w", err)
	}
	return nil
}

// ListWorkflows returns every workflow_id with a scratch state file under
// root, discovered with a glob over the conventional */state.json layout.
func ListWorkflows(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "*/"+stateFileName)
	if err != nil {
		return nil, fmt.Errorf("workflow: glob scratch dirs: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, filepath.Dir(m))
	}
	return ids, nil
}
