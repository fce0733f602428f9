package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"toolcore/pkg/domain"
)

// Dispatcher validates calls, runs handlers inside a transaction on the
// domain's store and reports uniform envelopes. Dispatches are serialized.
type Dispatcher struct {
	mu       sync.Mutex
	registry *Registry
	stores   map[string]domain.Store
	opts     options
}

// NewDispatcher constructs a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		stores:   make(map[string]domain.Store),
		opts:     applyOptions(opts),
	}
}

// Bind attaches the store that handlers of domainName run against.
func (d *Dispatcher) Bind(domainName string, store domain.Store) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stores[domainName] = store
}

// DispatchCall is Dispatch for a Call value.
func (d *Dispatcher) DispatchCall(ctx context.Context, domainName, iface string, call Call) Envelope {
	return d.Dispatch(ctx, domainName, iface, call.Name, call.Arguments)
}

// Dispatch resolves name in (domainName, iface), validates args and executes the
// handler atomically. It never returns a Go error: every outcome is an envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, domainName, iface, name string, args json.RawMessage) (env Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()

	op := domainName + "." + name
	started := time.Now()
	ctx, span := d.opts.tracer.Start(ctx, op)
	defer func() {
		d.opts.metrics.Observe(ctx, op, env.OK, time.Since(started))
		if env.OK {
			span.End(nil)
		} else {
			span.End(env.Error)
		}
	}()

	desc, err := d.registry.Resolve(domainName, iface, name)
	if err != nil {
		d.opts.logger.Debug("unknown tool", "domain", domainName, "interface", iface, "tool", name)
		return Failure(domain.ErrUnknownTool{Name: name})
	}
	store, ok := d.stores[domainName]
	if !ok {
		return d.internal(op, fmt.Errorf("no store bound for domain %s", domainName))
	}
	input, err := prepareArguments(desc, args)
	if err != nil {
		return Failure(err)
	}
	if err := ctx.Err(); err != nil {
		return d.internal(op, err)
	}

	txn, err := store.Begin()
	if err != nil {
		return d.internal(op, fmt.Errorf("begin transaction: %w", err))
	}
	value, err := invoke(ctx, desc, txn, input)
	if err != nil {
		txn.Rollback()
		if _, typed := domain.AsToolError(err); typed {
			d.opts.logger.Debug("tool failed", "tool", op, "error", err)
			return Failure(err)
		}
		return d.internal(op, err)
	}
	if limit := d.opts.dispatchTimeout; limit > 0 && time.Since(started) > limit {
		txn.Rollback()
		return d.internal(op, fmt.Errorf("handler exceeded %s", limit))
	}
	if desc.ReadOnly && len(txn.Changes()) > 0 {
		txn.Rollback()
		return d.internal(op, fmt.Errorf("read-only tool %s mutated the store", name))
	}
	raw, err := json.Marshal(value)
	if err != nil {
		txn.Rollback()
		return d.internal(op, fmt.Errorf("encode result: %w", err))
	}
	res, err := txn.Commit(ctx)
	if err != nil {
		var violation domain.RuleViolationError
		if errors.As(err, &violation) {
			d.opts.logger.Info("commit blocked", "tool", op, "error", err)
			return Failure(err)
		}
		return d.internal(op, fmt.Errorf("commit: %w", err))
	}
	for _, v := range res.Violations {
		d.opts.logger.Warn("rule violation", "tool", op, "rule", v.Rule, "severity", v.Severity, "message", v.Message)
	}
	return Envelope{OK: true, Value: raw}
}

func (d *Dispatcher) internal(op string, err error) Envelope {
	d.opts.logger.Error("dispatch failed", "tool", op, "error", err)
	return Failure(err)
}

// invoke runs the handler, converting panics into errors.
func invoke(ctx context.Context, desc Descriptor, tx domain.Tx, args json.RawMessage) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", desc.Name, r)
		}
	}()
	return desc.Handler(ctx, tx, args)
}

// prepareArguments decodes args, canonicalizes numeric ids to strings and
// validates the result against the descriptor's schema.
func prepareArguments(desc Descriptor, args json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	var instance any
	if err := json.Unmarshal(trimmed, &instance); err != nil {
		return nil, domain.ErrInvalidArgument{Reason: "arguments are not valid JSON: " + err.Error()}
	}
	obj, ok := instance.(map[string]any)
	if !ok {
		return nil, domain.ErrInvalidArgument{Reason: "arguments must be a JSON object"}
	}
	canonicalizeIDs(obj, desc.Parameters)
	for _, name := range desc.Parameters.Required {
		if _, present := obj[name]; !present {
			return nil, domain.ErrInvalidArgument{Field: name, Reason: "required"}
		}
	}
	resolved := desc.resolved
	if resolved == nil {
		var err error
		if resolved, err = desc.Parameters.Resolve(nil); err != nil {
			return nil, fmt.Errorf("resolve schema for %s: %w", desc.Name, err)
		}
	}
	if err := resolved.Validate(obj); err != nil {
		return nil, domain.ErrInvalidArgument{Reason: err.Error()}
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return out, nil
}

// canonicalizeIDs rewrites integral numbers supplied for id-named, string-typed
// properties into their string form, recursing into nested objects and arrays.
func canonicalizeIDs(obj map[string]any, schema *jsonschema.Schema) {
	if schema == nil {
		return
	}
	for key, value := range obj {
		prop := schema.Properties[key]
		if prop == nil {
			continue
		}
		obj[key] = canonicalizeValue(key, value, prop)
	}
}

func canonicalizeValue(key string, value any, prop *jsonschema.Schema) any {
	if prop == nil {
		return value
	}
	switch v := value.(type) {
	case float64:
		if domain.IsIDField(key) && acceptsString(prop) {
			if s, ok := domain.CanonicalID(v); ok {
				return s
			}
		}
	case []any:
		for i, item := range v {
			v[i] = canonicalizeValue(key, item, prop.Items)
		}
	case map[string]any:
		canonicalizeIDs(v, prop)
	}
	return value
}

func acceptsString(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}
	return s.Type == "string" || slices.Contains(s.Types, "string")
}
