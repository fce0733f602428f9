package core

import (
	"fmt"
	"sort"
)

// Plugin contributes one domain: its collections, lifecycles, rules and the
// tools of every role-scoped interface. Name is the domain name.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

type toolRegistration struct {
	iface      string
	descriptor Descriptor
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	collections []CollectionSpec
	machines    []StateMachine
	rules       []Rule
	tools       []toolRegistration
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{}
}

// RegisterCollection declares a collection owned by the domain.
func (r *PluginRegistry) RegisterCollection(specs ...CollectionSpec) {
	r.collections = append(r.collections, specs...)
}

// RegisterStateMachine declares a status lifecycle enforced at commit.
func (r *PluginRegistry) RegisterStateMachine(m StateMachine) {
	r.machines = append(r.machines, m)
}

// RegisterRule adds a commit-time rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterTool adds a tool to the named interface.
func (r *PluginRegistry) RegisterTool(iface string, d Descriptor) {
	r.tools = append(r.tools, toolRegistration{iface: iface, descriptor: d})
}

// RegisterTools adds several tools to the named interface in order.
func (r *PluginRegistry) RegisterTools(iface string, ds ...Descriptor) {
	for _, d := range ds {
		r.RegisterTool(iface, d)
	}
}

// Collections returns a copy of the declared collections.
func (r *PluginRegistry) Collections() []CollectionSpec {
	return append([]CollectionSpec(nil), r.collections...)
}

// StateMachines returns a copy of the declared lifecycles.
func (r *PluginRegistry) StateMachines() []StateMachine {
	return append([]StateMachine(nil), r.machines...)
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// validate checks internal consistency and stages the tools in a registry.
func (r *PluginRegistry) validate(domainName string) (*Registry, error) {
	declared := make(map[Collection]struct{}, len(r.collections))
	for _, spec := range r.collections {
		if spec.Name == "" {
			return nil, fmt.Errorf("plugin %s: collection name required", domainName)
		}
		if _, dup := declared[spec.Name]; dup {
			return nil, fmt.Errorf("plugin %s: collection %s declared twice", domainName, spec.Name)
		}
		declared[spec.Name] = struct{}{}
	}
	for _, m := range r.machines {
		if _, ok := declared[m.Collection]; !ok {
			return nil, fmt.Errorf("plugin %s: state machine for undeclared collection %s", domainName, m.Collection)
		}
	}
	staged := NewRegistry()
	for _, t := range r.tools {
		if err := staged.Register(domainName, t.iface, t.descriptor); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", domainName, err)
		}
	}
	return staged, nil
}

// PluginMetadata describes an installed plugin.
type PluginMetadata struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Collections []Collection        `json:"collections"`
	Interfaces  map[string][]string `json:"interfaces"`
}

func newPluginMetadata(p Plugin, reg *PluginRegistry, staged *Registry) PluginMetadata {
	meta := PluginMetadata{
		Name:       p.Name(),
		Version:    p.Version(),
		Interfaces: make(map[string][]string),
	}
	for _, spec := range reg.collections {
		meta.Collections = append(meta.Collections, spec.Name)
	}
	sort.Slice(meta.Collections, func(i, j int) bool { return meta.Collections[i] < meta.Collections[j] })
	for _, key := range staged.Groups() {
		for _, d := range staged.Tools(key.Domain, key.Interface) {
			meta.Interfaces[key.Interface] = append(meta.Interfaces[key.Interface], d.Name)
		}
	}
	return meta
}
