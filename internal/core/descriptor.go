package core

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"

	"toolcore/pkg/domain"
)

// Handler executes a tool against an open transaction. args has already been
// validated against the descriptor's parameter schema.
type Handler func(ctx context.Context, tx domain.Tx, args json.RawMessage) (any, error)

// Descriptor is the immutable self-description of a tool paired with its handler.
type Descriptor struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	// ReadOnly tools never mutate the store.
	ReadOnly bool
	// IdentityCheck marks the tool that verifies the caller's identity; mutating
	// tools are refused after it fails.
	IdentityCheck bool
	Handler       Handler

	resolved *jsonschema.Resolved
}

// ToolOption adjusts a descriptor under construction.
type ToolOption func(*Descriptor)

// ReadOnly marks the tool as non-mutating.
func ReadOnly() ToolOption {
	return func(d *Descriptor) { d.ReadOnly = true }
}

// IdentityCheck marks the tool as the interface's identity pre-check. Identity
// checks are always read-only.
func IdentityCheck() ToolOption {
	return func(d *Descriptor) {
		d.IdentityCheck = true
		d.ReadOnly = true
	}
}

// WithEnum restricts a string property to the listed values.
func WithEnum(property string, values ...string) ToolOption {
	return func(d *Descriptor) {
		prop := d.property(property)
		if prop == nil {
			panic(fmt.Errorf("tool %s: enum on unknown property %q", d.Name, property))
		}
		prop.Enum = make([]any, len(values))
		for i, v := range values {
			prop.Enum[i] = v
		}
	}
}

// WithMinimum sets an inclusive lower bound on a numeric property.
func WithMinimum(property string, minimum float64) ToolOption {
	return func(d *Descriptor) {
		prop := d.property(property)
		if prop == nil {
			panic(fmt.Errorf("tool %s: minimum on unknown property %q", d.Name, property))
		}
		prop.Minimum = jsonschema.Ptr(minimum)
	}
}

func (d *Descriptor) property(name string) *jsonschema.Schema {
	if d.Parameters == nil {
		return nil
	}
	return d.Parameters.Properties[name]
}

// NewTool builds a descriptor whose parameter schema is inferred from In, so the
// advertised schema and the handler's parameters share one definition. Fields
// without omitempty are required; the jsonschema struct tag is the description.
func NewTool[In any](name, description string, fn func(tx domain.Tx, in In) (any, error), opts ...ToolOption) Descriptor {
	params, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Errorf("tool %s: infer parameters: %w", name, err))
	}
	d := Descriptor{
		Name:        name,
		Description: description,
		Parameters:  params,
		Handler: func(_ context.Context, tx domain.Tx, args json.RawMessage) (any, error) {
			var in In
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, domain.ErrInvalidArgument{Reason: err.Error()}
				}
			}
			return fn(tx, in)
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewDescriptor builds a descriptor from an explicit schema and raw handler.
func NewDescriptor(name, description string, params *jsonschema.Schema, handler Handler, opts ...ToolOption) Descriptor {
	d := Descriptor{Name: name, Description: description, Parameters: params, Handler: handler}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Required lists the required parameter names.
func (d Descriptor) Required() []string {
	if d.Parameters == nil {
		return nil
	}
	return slices.Clone(d.Parameters.Required)
}

// Definition renders the catalog entry for the tool.
func (d Descriptor) Definition() FunctionDefinition {
	return FunctionDefinition{
		Type: "function",
		Function: FunctionSpec{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		},
	}
}

var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// prepare checks the descriptor and caches its resolved schema.
func (d Descriptor) prepare() (Descriptor, error) {
	if !toolNamePattern.MatchString(d.Name) {
		return d, fmt.Errorf("tool name %q must match %s", d.Name, toolNamePattern)
	}
	if d.Description == "" {
		return d, fmt.Errorf("tool %s: description required", d.Name)
	}
	if d.Handler == nil {
		return d, fmt.Errorf("tool %s: handler required", d.Name)
	}
	if d.Parameters == nil || d.Parameters.Type != "object" {
		return d, fmt.Errorf("tool %s: parameters must be an object schema", d.Name)
	}
	for _, name := range d.Parameters.Required {
		if _, ok := d.Parameters.Properties[name]; !ok {
			return d, fmt.Errorf("tool %s: required parameter %q has no property schema", d.Name, name)
		}
	}
	resolved, err := d.Parameters.Resolve(nil)
	if err != nil {
		return d, fmt.Errorf("tool %s: resolve schema: %w", d.Name, err)
	}
	d.resolved = resolved
	return d, nil
}

// FunctionDefinition is the native catalog entry advertised to an LLM.
type FunctionDefinition struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec names and describes a callable function.
type FunctionSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// MarshalJSON always advertises the required list, empty when every
// parameter is optional.
func (f FunctionSpec) MarshalJSON() ([]byte, error) {
	var params map[string]json.RawMessage
	if f.Parameters != nil {
		raw, err := json.Marshal(f.Parameters)
		if err != nil {
			return nil, fmt.Errorf("function %s: encode parameters: %w", f.Name, err)
		}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("function %s: encode parameters: %w", f.Name, err)
		}
		if _, ok := params["required"]; !ok {
			params["required"] = json.RawMessage(`[]`)
		}
	}
	return json.Marshal(struct {
		Name        string                     `json:"name"`
		Description string                     `json:"description"`
		Parameters  map[string]json.RawMessage `json:"parameters"`
	}{f.Name, f.Description, params})
}
