package core

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
)

type brokenPlugin struct {
	name     string
	register func(*PluginRegistry) error
}

func (p brokenPlugin) Name() string                     { return p.name }
func (brokenPlugin) Version() string                    { return "0.0.1" }
func (p brokenPlugin) Register(r *PluginRegistry) error { return p.register(r) }

func TestInstallPluginMetadata(t *testing.T) {
	logger := &captureLogger{}
	svc := NewService(WithLogger(logger))
	meta, err := svc.InstallPlugin(shopPlugin{})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if meta.Name != testDomain || meta.Version != "0.1.0" || len(meta.Collections) != 1 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if len(meta.Interfaces[testIface]) != 8 || len(meta.Interfaces["interface_2"]) != 1 {
		t.Fatalf("unexpected interfaces %+v", meta.Interfaces)
	}
	if !logger.has("i:plugin installed") {
		t.Fatalf("expected install log, got %v", logger.calls)
	}
	if _, err := svc.InstallPlugin(shopPlugin{}); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate plugin error, got %v", err)
	}
	if got := svc.RegisteredPlugins(); len(got) != 1 {
		t.Fatalf("expected one plugin, got %d", len(got))
	}
	if machines := svc.StateMachines(testDomain); len(machines) != 1 {
		t.Fatalf("expected one machine")
	}
}

func TestInstallPluginRejectsInvalidContributions(t *testing.T) {
	noop := func(domain.Tx, struct{}) (any, error) { return nil, nil }
	cases := map[string]func(*PluginRegistry) error{
		"duplicate tool": func(r *PluginRegistry) error {
			r.RegisterTools("interface_1", NewTool("a", "A.", noop), NewTool("a", "A.", noop))
			return nil
		},
		"duplicate collection": func(r *PluginRegistry) error {
			r.RegisterCollection(domain.CollectionSpec{Name: "x"}, domain.CollectionSpec{Name: "x"})
			return nil
		},
		"orphan machine": func(r *PluginRegistry) error {
			r.RegisterStateMachine(domain.StateMachine{Collection: "ghost", States: []string{"a"}})
			return nil
		},
		"register error": func(*PluginRegistry) error { return context.Canceled },
	}
	for name, register := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService()
			if _, err := svc.InstallPlugin(brokenPlugin{name: "broken", register: register}); err == nil {
				t.Fatalf("expected install failure")
			}
			if len(svc.RegisteredPlugins()) != 0 || len(svc.Registry().Groups()) != 0 {
				t.Fatalf("failed install left state behind")
			}
		})
	}
	if _, err := NewService().InstallPlugin(nil); err == nil {
		t.Fatalf("expected nil plugin error")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := newShopService()
	seed := memory.Snapshot{colItems: {{ID: "1", Record: domain.Record{"id": "1", "name": "lamp", "status": "listed", "stock": 2}}}}
	first, err := svc.OpenSession(testDomain, testIface, seed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := svc.OpenSession(testDomain, testIface, seed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if env := first.Call(ctx, "force_status", json.RawMessage(`{"item_id":1,"status":"retired"}`)); !env.OK {
		t.Fatalf("force_status: %+v", env.Error)
	}
	var it item
	if err := second.Call(ctx, "get_item", json.RawMessage(`{"item_id":"1"}`)).Decode(&it); err != nil {
		t.Fatalf("get: %v", err)
	}
	if it.Status != "listed" {
		t.Fatalf("sessions share state: %+v", it)
	}
	if got := first.Snapshot()[colItems][0].Record.Status(); got != "retired" {
		t.Fatalf("snapshot status = %s", got)
	}
	// the seed itself is untouched
	if seed[colItems][0].Record.Status() != "listed" {
		t.Fatalf("seed mutated")
	}
	if _, ok := first.Descriptor("explode"); !ok {
		t.Fatalf("expected descriptor lookup")
	}
	if len(first.Catalog()) != 8 || first.Domain() != testDomain || first.Interface() != testIface {
		t.Fatalf("unexpected session surface")
	}
}

func TestOpenSessionErrors(t *testing.T) {
	svc := newShopService()
	if _, err := svc.OpenSession(testDomain, "interface_9", nil); err == nil {
		t.Fatalf("expected error for empty interface")
	}
	if _, err := svc.OpenSession("nope", testIface, nil); err == nil {
		t.Fatalf("expected error for unknown domain")
	}
	bad := memory.Snapshot{"ghosts": {{ID: "1", Record: domain.Record{"id": "1"}}}}
	if _, err := svc.OpenSession(testDomain, testIface, bad); err == nil {
		t.Fatalf("expected seed error for undeclared collection")
	}
}

func TestIdentityCheckInterfaceIsScoped(t *testing.T) {
	svc := newShopService()
	sess, err := svc.OpenSession(testDomain, "interface_2", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	d, ok := sess.Descriptor("get_item")
	if !ok || !d.IdentityCheck {
		t.Fatalf("expected identity-check descriptor")
	}
	if env := sess.Call(context.Background(), "create_item", json.RawMessage(`{"name":"x"}`)); env.Kind() != domain.KindUnknownTool {
		t.Fatalf("expected UnknownTool outside interface, got %+v", env)
	}
}
