package core

import (
	"context"
	"fmt"

	"toolcore/pkg/domain"
)

const statusTransitionRuleName = "status_transition"

// StatusTransitionRule blocks committed changes that move a record outside its
// declared state machine: unknown states, exits from terminal states, moves
// against a monotonic order and steps the transition table does not list.
type StatusTransitionRule struct {
	machines map[Collection]StateMachine
}

// NewStatusTransitionRule builds the rule for the supplied machines. Later
// machines for the same collection replace earlier ones.
func NewStatusTransitionRule(machines ...StateMachine) *StatusTransitionRule {
	r := &StatusTransitionRule{machines: make(map[Collection]StateMachine, len(machines))}
	for _, m := range machines {
		r.machines[m.Collection] = m
	}
	return r
}

// Name implements domain.Rule.
func (*StatusTransitionRule) Name() string { return statusTransitionRuleName }

// Evaluate implements domain.Rule.
func (r *StatusTransitionRule) Evaluate(_ context.Context, _ domain.View, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		machine, ok := r.machines[change.Collection]
		if !ok || change.After == nil {
			continue
		}
		field := machine.StatusField()
		if _, present := change.After[field]; !present {
			continue
		}
		after := change.After.String(field)
		before := change.Before.String(field)
		if change.Before != nil && before == after {
			continue
		}
		if !machine.Valid(after) {
			res.Violations = append(res.Violations, r.violation(machine, change.ID, "", after,
				fmt.Sprintf("%s %s is set to invalid state %s", machine.Entity, change.ID, after)))
			continue
		}
		if change.Before == nil || before == "" {
			continue
		}
		if !machine.Allows(before, after) {
			res.Violations = append(res.Violations, r.violation(machine, change.ID, before, after,
				fmt.Sprintf("cannot move %s %s from %s to %s", machine.Entity, change.ID, before, after)))
		}
	}
	return res, nil
}

func (r *StatusTransitionRule) violation(m StateMachine, id, from, to, msg string) Violation {
	return Violation{
		Rule:       statusTransitionRuleName,
		Severity:   domain.SeverityBlock,
		Message:    msg,
		Collection: m.Collection,
		EntityID:   id,
		From:       from,
		To:         to,
	}
}
