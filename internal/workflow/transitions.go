package workflow

import "slices"

// ValidTransition checks whether moving from one phase to another is allowed
// by the fixed phase graph. An empty allowed-list means from is terminal.
func ValidTransition(from, to Phase) bool {
	allowed, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// AllowedTransitions returns the phases reachable directly from from.
func AllowedTransitions(from Phase) []Phase {
	return phaseTransitions[from]
}

// IsTerminalPhase reports whether phase has no outgoing transitions.
func IsTerminalPhase(phase Phase) bool {
	return len(phaseTransitions[phase]) == 0
}
