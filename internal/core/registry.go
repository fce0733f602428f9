package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateTool is returned when a name is registered twice in one interface.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrNotRegistered is returned when a tool is absent from the active interface.
	ErrNotRegistered = errors.New("tool not registered")
)

// GroupKey identifies a role-scoped interface of a domain.
type GroupKey struct {
	Domain    string `json:"domain"`
	Interface string `json:"interface"`
}

func (k GroupKey) String() string { return k.Domain + "/" + k.Interface }

type toolGroup struct {
	order []string
	tools map[string]Descriptor
}

// Registry groups descriptors by (domain, interface). Names are unique within
// a group and the catalog preserves registration order.
type Registry struct {
	mu     sync.RWMutex
	groups map[GroupKey]*toolGroup
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[GroupKey]*toolGroup)}
}

// Register validates d and adds it to the (domain, iface) group.
func (r *Registry) Register(domainName, iface string, d Descriptor) error {
	if domainName == "" || iface == "" {
		return fmt.Errorf("register %s: domain and interface required", d.Name)
	}
	prepared, err := d.prepare()
	if err != nil {
		return err
	}
	key := GroupKey{Domain: domainName, Interface: iface}

	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[key]
	if !ok {
		group = &toolGroup{tools: make(map[string]Descriptor)}
		r.groups[key] = group
	}
	if _, exists := group.tools[d.Name]; exists {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateTool, d.Name, key)
	}
	group.tools[d.Name] = prepared
	group.order = append(group.order, d.Name)
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(domainName, iface, name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[GroupKey{Domain: domainName, Interface: iface}]
	if ok {
		if d, found := group.tools[name]; found {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s in %s/%s", ErrNotRegistered, name, domainName, iface)
}

// Tools lists the group's descriptors in registration order.
func (r *Registry) Tools(domainName, iface string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[GroupKey{Domain: domainName, Interface: iface}]
	if !ok {
		return nil
	}
	out := make([]Descriptor, 0, len(group.order))
	for _, name := range group.order {
		out = append(out, group.tools[name])
	}
	return out
}

// Catalog lists the group's function definitions in registration order.
func (r *Registry) Catalog(domainName, iface string) []FunctionDefinition {
	tools := r.Tools(domainName, iface)
	out := make([]FunctionDefinition, 0, len(tools))
	for _, d := range tools {
		out = append(out, d.Definition())
	}
	return out
}

// Groups lists every registered (domain, interface) pair, sorted.
func (r *Registry) Groups() []GroupKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]GroupKey, 0, len(r.groups))
	for key := range r.groups {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain == out[j].Domain {
			return out[i].Interface < out[j].Interface
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Interfaces lists the interfaces registered for a domain, sorted.
func (r *Registry) Interfaces(domainName string) []string {
	var out []string
	for _, key := range r.Groups() {
		if key.Domain == domainName {
			out = append(out, key.Interface)
		}
	}
	return out
}

// merge copies every group of other into r, failing without changes on the
// first duplicate.
func (r *Registry) merge(other *Registry) error {
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, group := range other.groups {
		if existing, ok := r.groups[key]; ok {
			for _, name := range group.order {
				if _, dup := existing.tools[name]; dup {
					return fmt.Errorf("%w: %s in %s", ErrDuplicateTool, name, key)
				}
			}
		}
	}
	for key, group := range other.groups {
		target, ok := r.groups[key]
		if !ok {
			target = &toolGroup{tools: make(map[string]Descriptor)}
			r.groups[key] = target
		}
		for _, name := range group.order {
			target.tools[name] = group.tools[name]
			target.order = append(target.order, name)
		}
	}
	return nil
}
