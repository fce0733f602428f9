package core

import "toolcore/pkg/domain"

type (
	Collection         = domain.Collection
	CollectionSpec     = domain.CollectionSpec
	Record             = domain.Record
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	StateMachine       = domain.StateMachine
	ErrorKind          = domain.ErrorKind
	Tx                 = domain.Tx
	View               = domain.View
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
