package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable error class surfaced in failure envelopes.
type ErrorKind string

// Closed set of error kinds visible to callers.
const (
	KindUnknownTool          ErrorKind = "UnknownTool"
	KindInvalidArgument      ErrorKind = "InvalidArgument"
	KindNotFound             ErrorKind = "NotFound"
	KindAlreadyExists        ErrorKind = "AlreadyExists"
	KindInvalidState         ErrorKind = "InvalidState"
	KindConflictingReference ErrorKind = "ConflictingReference"
	KindAuthorizationDenied  ErrorKind = "AuthorizationDenied"
	KindInternal             ErrorKind = "Internal"
)

// ToolError is implemented by the typed errors a handler may return. The set
// of implementations is closed; any other error is reported as Internal.
type ToolError interface {
	error
	Kind() ErrorKind
	Details() map[string]any
	toolError()
}

// AsToolError unwraps err into a ToolError when possible.
func AsToolError(err error) (ToolError, bool) {
	var te ToolError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ErrNotFound reports a referenced record that does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.ID) }

// Kind implements ToolError.
func (ErrNotFound) Kind() ErrorKind { return KindNotFound }

// Details implements ToolError.
func (e ErrNotFound) Details() map[string]any {
	return map[string]any{"entity": e.Entity, "id": e.ID}
}

func (ErrNotFound) toolError() {}

// ErrAlreadyExists reports a duplicate key or a duplicate unique field.
type ErrAlreadyExists struct {
	Entity string
	ID     string
	Field  string
	Value  string
}

func (e ErrAlreadyExists) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s with %s %s already exists", e.Entity, e.Field, e.Value)
	}
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// Kind implements ToolError.
func (ErrAlreadyExists) Kind() ErrorKind { return KindAlreadyExists }

// Details implements ToolError.
func (e ErrAlreadyExists) Details() map[string]any {
	d := map[string]any{"entity": e.Entity}
	if e.ID != "" {
		d["id"] = e.ID
	}
	if e.Field != "" {
		d["field"] = e.Field
		d["value"] = e.Value
	}
	return d
}

func (ErrAlreadyExists) toolError() {}

// ErrInvalidState reports a status transition the entity's lifecycle forbids.
type ErrInvalidState struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e ErrInvalidState) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s %s is %s", e.Entity, e.ID, e.From)
	}
	return fmt.Sprintf("cannot move %s %s from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// Kind implements ToolError.
func (ErrInvalidState) Kind() ErrorKind { return KindInvalidState }

// Details implements ToolError.
func (e ErrInvalidState) Details() map[string]any {
	return map[string]any{"entity": e.Entity, "id": e.ID, "from": e.From, "to": e.To}
}

func (ErrInvalidState) toolError() {}

// ErrInvalidArgument reports a semantic validation failure on one argument.
type ErrInvalidArgument struct {
	Field  string
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Kind implements ToolError.
func (ErrInvalidArgument) Kind() ErrorKind { return KindInvalidArgument }

// Details implements ToolError.
func (e ErrInvalidArgument) Details() map[string]any {
	d := map[string]any{"reason": e.Reason}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

func (ErrInvalidArgument) toolError() {}

// ErrConflictingReference reports an operation blocked by a dependent record,
// e.g. deleting an invoice that payments still reference.
type ErrConflictingReference struct {
	Entity    string
	ID        string
	Related   string
	RelatedID string
}

func (e ErrConflictingReference) Error() string {
	return fmt.Sprintf("%s %s is referenced by %s %s", e.Entity, e.ID, e.Related, e.RelatedID)
}

// Kind implements ToolError.
func (ErrConflictingReference) Kind() ErrorKind { return KindConflictingReference }

// Details implements ToolError.
func (e ErrConflictingReference) Details() map[string]any {
	return map[string]any{"entity": e.Entity, "id": e.ID, "related": e.Related, "related_id": e.RelatedID}
}

func (ErrConflictingReference) toolError() {}

// ErrAuthorizationDenied reports a failed approval or identity check.
type ErrAuthorizationDenied struct {
	Code   string
	Reason string
}

func (e ErrAuthorizationDenied) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("authorization denied (%s)", e.Code)
	}
	return fmt.Sprintf("authorization denied (%s): %s", e.Code, e.Reason)
}

// Kind implements ToolError.
func (ErrAuthorizationDenied) Kind() ErrorKind { return KindAuthorizationDenied }

// Details implements ToolError.
func (e ErrAuthorizationDenied) Details() map[string]any {
	return map[string]any{"code": e.Code}
}

func (ErrAuthorizationDenied) toolError() {}

// ErrUnknownTool reports a call to a tool that is not registered in the active interface.
type ErrUnknownTool struct {
	Name string
}

func (e ErrUnknownTool) Error() string { return fmt.Sprintf("unknown tool %s", e.Name) }

// Kind implements ToolError.
func (ErrUnknownTool) Kind() ErrorKind { return KindUnknownTool }

// Details implements ToolError.
func (e ErrUnknownTool) Details() map[string]any { return map[string]any{"name": e.Name} }

func (ErrUnknownTool) toolError() {}

// ErrIDSpaceExhausted is returned when a collection's keys cannot be extended
// under its id policy (e.g. numeric minting over non-numeric keys).
type ErrIDSpaceExhausted struct {
	Collection Collection
	Key        string
}

func (e ErrIDSpaceExhausted) Error() string {
	return fmt.Sprintf("cannot mint id for %s: existing key %q does not follow the id policy", e.Collection, e.Key)
}
