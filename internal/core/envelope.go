package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"toolcore/pkg/domain"
)

// Call is a single tool invocation as produced by an agent.
type Call struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Envelope is the uniform result of a dispatch: {ok:true, value} or
// {ok:false, error:{kind, message, ...context}}.
type Envelope struct {
	OK    bool
	Value json.RawMessage
	Error *ErrorBody
}

// ErrorBody describes a failed dispatch. Details are flattened next to kind and
// message when serialized.
type ErrorBody struct {
	Kind    domain.ErrorKind
	Message string
	Details map[string]any
}

func (e *ErrorBody) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// MarshalJSON flattens details into the error object.
func (e ErrorBody) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		out[k] = v
	}
	out["kind"] = e.Kind
	out["message"] = e.Message
	return json.Marshal(out)
}

// UnmarshalJSON splits kind and message from the remaining context fields.
func (e *ErrorBody) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, _ := raw["kind"].(string)
	msg, _ := raw["message"].(string)
	delete(raw, "kind")
	delete(raw, "message")
	e.Kind = domain.ErrorKind(kind)
	e.Message = msg
	e.Details = nil
	if len(raw) > 0 {
		e.Details = raw
	}
	return nil
}

type envelopeWire struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	w := envelopeWire{OK: e.OK}
	if e.OK {
		w.Value = e.Value
		if len(w.Value) == 0 {
			w.Value = json.RawMessage("null")
		}
	} else {
		w.Error = e.Error
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w envelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Envelope{OK: w.OK, Value: w.Value, Error: w.Error}
	return nil
}

// Kind returns the error kind, or "" for successes.
func (e Envelope) Kind() domain.ErrorKind {
	if e.OK || e.Error == nil {
		return ""
	}
	return e.Error.Kind
}

// Text renders a success value for output matching: JSON strings are unquoted,
// anything else is its JSON text.
func (e Envelope) Text() string {
	if !e.OK || len(e.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Value, &s); err == nil {
		return s
	}
	return string(e.Value)
}

// Decode unmarshals the success value into v.
func (e Envelope) Decode(v any) error {
	if !e.OK {
		if e.Error == nil {
			return errors.New("dispatch failed")
		}
		return e.Error
	}
	return json.Unmarshal(e.Value, v)
}

// Success wraps a handler result.
func Success(value any) (Envelope, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode result: %w", err)
	}
	return Envelope{OK: true, Value: raw}, nil
}

// Failure maps err onto the closed error taxonomy.
func Failure(err error) Envelope {
	if te, ok := domain.AsToolError(err); ok {
		return Envelope{Error: &ErrorBody{Kind: te.Kind(), Message: te.Error(), Details: te.Details()}}
	}
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		body := &ErrorBody{Kind: domain.KindInvalidState, Message: violation.Error()}
		if v, ok := violation.Result.Blocking(); ok {
			body.Details = map[string]any{
				"rule":       v.Rule,
				"collection": string(v.Collection),
				"id":         v.EntityID,
			}
			if v.From != "" {
				body.Details["from"] = v.From
			}
			if v.To != "" {
				body.Details["to"] = v.To
			}
		}
		return Envelope{Error: body}
	}
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Error: &ErrorBody{Kind: domain.KindInternal, Message: msg}}
}
