package domain

import "slices"

// StateMachine declares the permitted status lifecycle of a collection.
// Handlers call Transition before writing a new status; the status transition
// rule evaluates the same machine over every committed change.
type StateMachine struct {
	Collection Collection
	// Entity is the label used in error messages ("order", "contract").
	Entity string
	// Field holds the status; defaults to FieldStatus.
	Field string
	// States lists every valid state.
	States []string
	// Transitions maps a state to the states reachable from it in one step.
	Transitions map[string][]string
	// Terminal states cannot be left.
	Terminal []string
	// Order ranks states for monotonic lifecycles; a state absent from Order
	// is unranked and only constrained by Transitions.
	Order []string
}

// StatusField returns the record field holding the state.
func (m StateMachine) StatusField() string {
	if m.Field == "" {
		return FieldStatus
	}
	return m.Field
}

// Valid reports whether state belongs to the machine.
func (m StateMachine) Valid(state string) bool {
	return slices.Contains(m.States, state)
}

// IsTerminal reports whether state is terminal.
func (m StateMachine) IsTerminal(state string) bool {
	return slices.Contains(m.Terminal, state)
}

func (m StateMachine) rank(state string) int {
	return slices.Index(m.Order, state)
}

// Allows reports whether a single step from -> to is permitted. Staying in the
// same state is always permitted.
func (m StateMachine) Allows(from, to string) bool {
	if !m.Valid(to) {
		return false
	}
	if from == to {
		return true
	}
	if m.IsTerminal(from) {
		return false
	}
	if rf, rt := m.rank(from), m.rank(to); rf >= 0 && rt >= 0 && rt < rf {
		return false
	}
	if m.Transitions == nil {
		return true
	}
	return slices.Contains(m.Transitions[from], to)
}

// Transition returns ErrInvalidState unless from -> to is a real, permitted step.
func (m StateMachine) Transition(id, from, to string) error {
	if from == to || !m.Allows(from, to) {
		return ErrInvalidState{Entity: m.Entity, ID: id, From: from, To: to}
	}
	return nil
}
