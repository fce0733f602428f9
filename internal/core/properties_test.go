package core

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

// Every failing dispatch leaves the committed state exactly as it was.
func TestFailedDispatchNeverMutates(t *testing.T) {
	svc := newShopService()
	sess, err := svc.OpenSession(testDomain, testIface, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if env := sess.Call(ctx, "create_item", json.RawMessage(`{"name":"lamp"}`)); !env.OK {
		t.Fatalf("seed create: %+v", env.Error)
	}
	calls := []struct {
		name string
		args string
	}{
		{"create_then_fail", `{"name":"x"}`},
		{"force_status", `{"item_id":"1","status":"haunted"}`},
		{"force_status", `{"item_id":"404","status":"listed"}`},
		{"sneaky_read", `{}`},
		{"explode", `{}`},
		{"plain_error", `{}`},
		{"create_item", `{"stock":1}`},
		{"missing_tool", `{}`},
	}
	for i, c := range calls {
		t.Run(fmt.Sprintf("%d_%s", i, c.name), func(t *testing.T) {
			before := sess.Snapshot()
			env := sess.Call(ctx, c.name, json.RawMessage(c.args))
			if env.OK {
				t.Fatalf("expected failure")
			}
			if !reflect.DeepEqual(before, sess.Snapshot()) {
				t.Fatalf("failed call mutated the store")
			}
		})
	}
}

// Every advertised required name is a declared property and every tool's
// schema accepts the arguments the handler decodes.
func TestCatalogSchemasAreHonest(t *testing.T) {
	svc := newShopService()
	for _, key := range svc.Registry().Groups() {
		seen := map[string]bool{}
		for _, d := range svc.Registry().Tools(key.Domain, key.Interface) {
			if seen[d.Name] {
				t.Fatalf("duplicate %s in %s", d.Name, key)
			}
			seen[d.Name] = true
			for _, req := range d.Required() {
				if _, ok := d.Parameters.Properties[req]; !ok {
					t.Fatalf("%s/%s requires undeclared %s", key, d.Name, req)
				}
			}
		}
	}
}
