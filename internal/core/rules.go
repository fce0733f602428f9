package core

import "toolcore/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds an engine enforcing the supplied lifecycles.
func NewDefaultRulesEngine(machines ...StateMachine) *RulesEngine {
	engine := domain.NewRulesEngine()
	if len(machines) > 0 {
		engine.Register(NewStatusTransitionRule(machines...))
	}
	return engine
}
