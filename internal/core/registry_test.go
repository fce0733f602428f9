package core

import (
	"errors"
	"testing"

	"toolcore/pkg/domain"
)

func noopTool(name string) Descriptor {
	return NewTool(name, "Tool "+name+".", func(domain.Tx, struct{}) (any, error) { return nil, nil })
}

func TestRegistryUniquenessAndOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"b_tool", "a_tool", "c_tool"} {
		if err := reg.Register("finance", "interface_1", noopTool(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := reg.Register("finance", "interface_1", noopTool("a_tool")); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
	// same name in another interface is allowed
	if err := reg.Register("finance", "interface_2", noopTool("a_tool")); err != nil {
		t.Fatalf("register in other interface: %v", err)
	}
	catalog := reg.Catalog("finance", "interface_1")
	if len(catalog) != 3 || catalog[0].Function.Name != "b_tool" || catalog[2].Function.Name != "c_tool" {
		t.Fatalf("unexpected catalog order %+v", catalog)
	}
	seen := map[string]bool{}
	for _, def := range catalog {
		if seen[def.Function.Name] {
			t.Fatalf("duplicate name %s in catalog", def.Function.Name)
		}
		seen[def.Function.Name] = true
	}
}

func TestRegistryResolveAndGroups(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("hr_payroll", "interface_2", noopTool("x"))
	_ = reg.Register("ecommerce", "interface_1", noopTool("y"))
	_ = reg.Register("hr_payroll", "interface_1", noopTool("z"))
	if _, err := reg.Resolve("hr_payroll", "interface_1", "x"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered across interfaces, got %v", err)
	}
	d, err := reg.Resolve("hr_payroll", "interface_2", "x")
	if err != nil || d.Name != "x" {
		t.Fatalf("resolve: %+v %v", d, err)
	}
	groups := reg.Groups()
	want := []GroupKey{{"ecommerce", "interface_1"}, {"hr_payroll", "interface_1"}, {"hr_payroll", "interface_2"}}
	if len(groups) != len(want) {
		t.Fatalf("groups = %v", groups)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Fatalf("groups = %v want %v", groups, want)
		}
	}
	if ifaces := reg.Interfaces("hr_payroll"); len(ifaces) != 2 {
		t.Fatalf("interfaces = %v", ifaces)
	}
	if reg.Catalog("nope", "interface_1") == nil || len(reg.Catalog("nope", "interface_1")) != 0 {
		t.Fatalf("expected empty catalog for unknown group")
	}
}

func TestRegistryRejectsInvalidRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("", "interface_1", noopTool("x")); err == nil {
		t.Fatalf("expected missing domain error")
	}
	if err := reg.Register("d", "i", Descriptor{Name: "x"}); err == nil {
		t.Fatalf("expected invalid descriptor error")
	}
}

func TestRegistryMergeIsAllOrNothing(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("d", "i", noopTool("a"))
	staged := NewRegistry()
	_ = staged.Register("d", "j", noopTool("b"))
	_ = staged.Register("d", "i", noopTool("a"))
	if err := reg.merge(staged); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected duplicate during merge, got %v", err)
	}
	if len(reg.Tools("d", "j")) != 0 {
		t.Fatalf("partial merge applied")
	}
}
