package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"toolcore/internal/infra/persistence/memory"
)

type domainPack struct {
	collections []CollectionSpec
	machines    []StateMachine
	rules       []Rule
}

// Service owns the tool registry and the installed domain plugins, and opens
// sessions that pair a dispatcher with a fresh store.
type Service struct {
	mu       sync.RWMutex
	registry *Registry
	plugins  map[string]PluginMetadata
	domains  map[string]domainPack
	opts     []Option
	resolved options
}

// NewService constructs a service with no plugins installed.
func NewService(opts ...Option) *Service {
	return &Service{
		registry: NewRegistry(),
		plugins:  make(map[string]PluginMetadata),
		domains:  make(map[string]domainPack),
		opts:     opts,
		resolved: applyOptions(opts),
	}
}

// Registry exposes the tool registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// InstallPlugin registers a plugin's collections, lifecycles, rules and tools.
// Nothing is installed when any contribution is invalid.
func (s *Service) InstallPlugin(plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin cannot be nil")
	}
	name := plugin.Name()
	if name == "" {
		return PluginMetadata{}, fmt.Errorf("plugin name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plugins[name]; ok {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", name)
	}

	reg := NewPluginRegistry()
	if err := plugin.Register(reg); err != nil {
		return PluginMetadata{}, fmt.Errorf("register plugin %s: %w", name, err)
	}
	staged, err := reg.validate(name)
	if err != nil {
		return PluginMetadata{}, err
	}
	if err := s.registry.merge(staged); err != nil {
		return PluginMetadata{}, fmt.Errorf("plugin %s: %w", name, err)
	}

	s.domains[name] = domainPack{
		collections: reg.Collections(),
		machines:    reg.StateMachines(),
		rules:       reg.Rules(),
	}
	meta := newPluginMetadata(plugin, reg, staged)
	s.plugins[name] = meta
	s.resolved.logger.Info("plugin installed", "plugin", name, "version", meta.Version, "interfaces", len(meta.Interfaces))
	return meta, nil
}

// RegisteredPlugins returns metadata for installed plugins sorted by name.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Collections returns the collection specs declared by a domain.
func (s *Service) Collections(domainName string) ([]CollectionSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pack, ok := s.domains[domainName]
	if !ok {
		return nil, fmt.Errorf("unknown domain %s", domainName)
	}
	return append([]CollectionSpec(nil), pack.collections...), nil
}

// StateMachines returns the lifecycles declared by a domain.
func (s *Service) StateMachines(domainName string) []StateMachine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]StateMachine(nil), s.domains[domainName].machines...)
}

// NewStore builds an empty store for a domain, wired with its lifecycle rule,
// plugin rules and the service clock.
func (s *Service) NewStore(domainName string) (*memory.Store, error) {
	s.mu.RLock()
	pack, ok := s.domains[domainName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown domain %s", domainName)
	}
	engine := NewDefaultRulesEngine(pack.machines...)
	for _, rule := range pack.rules {
		engine.Register(rule)
	}
	return memory.NewStore(engine, pack.collections, memory.WithClock(s.resolved.clock.Now)), nil
}

// OpenSession creates a fresh store seeded with snapshot and a dispatcher bound
// to it, scoped to one (domain, interface) pair.
func (s *Service) OpenSession(domainName, iface string, snapshot memory.Snapshot) (*Session, error) {
	if len(s.registry.Tools(domainName, iface)) == 0 {
		return nil, fmt.Errorf("no tools registered for %s/%s", domainName, iface)
	}
	store, err := s.NewStore(domainName)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		if err := store.ImportState(snapshot); err != nil {
			return nil, fmt.Errorf("seed %s store: %w", domainName, err)
		}
	}
	dispatcher := NewDispatcher(s.registry, s.opts...)
	dispatcher.Bind(domainName, store)
	return &Session{dispatcher: dispatcher, store: store, domain: domainName, iface: iface}, nil
}

// Session is one run's view of the system: a dispatcher, its store and the
// active (domain, interface).
type Session struct {
	dispatcher *Dispatcher
	store      *memory.Store
	domain     string
	iface      string
}

// Domain returns the active domain.
func (s *Session) Domain() string { return s.domain }

// Interface returns the active interface.
func (s *Session) Interface() string { return s.iface }

// Store exposes the session store.
func (s *Session) Store() *memory.Store { return s.store }

// Catalog lists the tools callable in this session.
func (s *Session) Catalog() []FunctionDefinition {
	return s.dispatcher.registry.Catalog(s.domain, s.iface)
}

// Descriptor looks up a tool of the active interface.
func (s *Session) Descriptor(name string) (Descriptor, bool) {
	d, err := s.dispatcher.registry.Resolve(s.domain, s.iface, name)
	return d, err == nil
}

// Call dispatches one tool invocation.
func (s *Session) Call(ctx context.Context, name string, args json.RawMessage) Envelope {
	return s.dispatcher.Dispatch(ctx, s.domain, s.iface, name, args)
}

// Invoke dispatches a Call.
func (s *Session) Invoke(ctx context.Context, call Call) Envelope {
	return s.Call(ctx, call.Name, call.Arguments)
}

// Snapshot exports the current store contents.
func (s *Session) Snapshot() memory.Snapshot {
	return s.store.ExportState()
}
