// Package taskid validates task-tracker identifiers and turns them into
// subprocess argument vectors, never command-line strings, so a malicious
// id can never reach a shell.
package taskid

import (
	"fmt"
	"regexp"
)

// pattern is the closed format every task id must match: 2-5 letters, a
// dash, then one or more alphanumerics. Case-insensitive.
var pattern = regexp.MustCompile(`(?i)^[A-Za-z]{2,5}-[A-Za-z0-9]+$`)

// InvalidTaskIDError reports an id that failed validation.
type InvalidTaskIDError struct {
	ID string
}

func (e *InvalidTaskIDError) Error() string {
	return fmt.Sprintf("taskid: %q is not a valid task id", e.ID)
}

// Validate checks id against the closed task-id format. It never inspects
// id for shell metacharacters directly: rejecting anything outside
// `^[A-Za-z]{2,5}-[A-Za-z0-9]+$` already excludes `;`, `|`, backticks,
// `$()`, newlines, and `..` by construction.
func Validate(id string) error {
	if !pattern.MatchString(id) {
		return &InvalidTaskIDError{ID: id}
	}
	return nil
}

// BuildArgv returns the argument vector for invoking the agent executor
// against a validated task id and subcommand flags. The slash command and
// id are joined into the single prompt element that follows -p; no element
// is a shell command line, and each one is passed to exec.Command as its
// own argv entry.
func BuildArgv(claudePath, slashCommand, id string, extra ...string) ([]string, error) {
	if err := Validate(id); err != nil {
		return nil, err
	}
	argv := make([]string, 0, 4+len(extra))
	argv = append(argv, claudePath, "-p", fmt.Sprintf("%s %s", slashCommand, id))
	argv = append(argv, extra...)
	return argv, nil
}
