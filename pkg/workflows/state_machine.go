package workflows

import "fmt"

// StateMachine enforces status transitions from a closed table. Any
// transition not listed is rejected.
type StateMachine[S ~string] struct {
	name               string
	allowedTransitions map[S][]S
}

// TransitionError reports a rejected status change
type TransitionError[S ~string] struct {
	Machine string
	From    S
	To      S
}

func (e *TransitionError[S]) Error() string {
	return fmt.Sprintf("%s: transition from %q to %q is not allowed", e.Machine, e.From, e.To)
}

// NewStateMachine creates a state machine with the given allowed transitions
func NewStateMachine[S ~string](name string, transitions map[S][]S) *StateMachine[S] {
	return &StateMachine[S]{
		name:               name,
		allowedTransitions: transitions,
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine[S]) CanTransition(from, to S) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition returns to when the move is allowed, or a *TransitionError
func (sm *StateMachine[S]) Transition(from, to S) (S, error) {
	if !sm.CanTransition(from, to) {
		return from, &TransitionError[S]{Machine: sm.name, From: from, To: to}
	}
	return to, nil
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine[S]) GetAllowedTransitions(from S) []S {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []S{}
	}
	return allowed
}

// IsTerminal reports whether no transition leaves the status
func (sm *StateMachine[S]) IsTerminal(status S) bool {
	return len(sm.allowedTransitions[status]) == 0
}
