package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type lookupInput struct {
	InvoiceID domain.ID `json:"invoice_id" jsonschema:"invoice to fetch"`
	Verbose   bool      `json:"verbose,omitempty"`
}

func sampleCatalog() []core.FunctionDefinition {
	d := core.NewTool("get_invoice", "Fetch an invoice.", func(domain.Tx, lookupInput) (any, error) { return nil, nil }, core.ReadOnly())
	return []core.FunctionDefinition{d.Definition()}
}

func TestOpenAITools(t *testing.T) {
	tools, err := OpenAITools(sampleCatalog())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	raw, err := json.Marshal(tools)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"type":"function"`, `"name":"get_invoice"`, `"description":"Fetch an invoice."`, `"required":["invoice_id"]`, `"additionalProperties":false`, `"invoice to fetch"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("openai tools %s missing %s", raw, want)
		}
	}
}

func TestAnthropicTools(t *testing.T) {
	tools, err := AnthropicTools(sampleCatalog())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if tools[0].OfTool == nil || tools[0].OfTool.Name != "get_invoice" {
		t.Fatalf("unexpected tool %+v", tools[0])
	}
	raw, err := json.Marshal(tools)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"input_schema"`, `"type":"object"`, `"required":["invoice_id"]`, `"verbose"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("anthropic tools %s missing %s", raw, want)
		}
	}
}

func TestExport(t *testing.T) {
	defs := sampleCatalog()
	for _, format := range Formats() {
		out, err := Export(format, defs)
		if err != nil || out == nil {
			t.Fatalf("%s: %v", format, err)
		}
	}
	if _, err := Export("gemini", defs); err == nil {
		t.Fatalf("expected unknown format error")
	}
	bad := []core.FunctionDefinition{{Type: "function", Function: core.FunctionSpec{Name: "x", Parameters: &jsonschema.Schema{Type: "string"}}}}
	if _, err := Export(FormatOpenAI, bad); err == nil {
		t.Fatalf("expected object schema error")
	}
}

func TestExportAdvertisesEmptyRequired(t *testing.T) {
	d := core.NewTool("list_overdue_invoices", "List overdue invoices.", func(domain.Tx, struct {
		Limit int `json:"limit,omitempty"`
	}) (any, error) {
		return nil, nil
	}, core.ReadOnly())
	for _, format := range Formats() {
		out, err := Export(format, []core.FunctionDefinition{d.Definition()})
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		raw, err := json.Marshal(out)
		if err != nil {
			t.Fatalf("%s: marshal: %v", format, err)
		}
		if !strings.Contains(string(raw), `"required":[]`) {
			t.Fatalf("%s: expected empty required list, got %s", format, raw)
		}
	}
}
