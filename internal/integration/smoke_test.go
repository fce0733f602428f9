package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"toolcore/internal/adapters/transcripts"
	"toolcore/internal/blob"
	"toolcore/internal/core"
	"toolcore/internal/dataset"
	"toolcore/internal/runner"
	"toolcore/pkg/domain"
	"toolcore/plugins"
	"toolcore/plugins/ecommerce"
	"toolcore/plugins/testhelper"
)

// TestIntegrationSmoke drives one task end to end for every ledger and blob
// adapter: dataset blob in, dispatch through the installed plugins, transcript
// blob and ledger record out. It keeps scope tiny so it can act as a fast CI
// health check.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	ledgerVariants := []struct {
		name string
		open func(t *testing.T) domain.RunLedger
	}{
		{
			name: "memory-ledger",
			open: func(t *testing.T) domain.RunLedger {
				l, err := core.OpenRunLedger(core.LedgerConfig{Driver: core.LedgerMemory})
				if err != nil {
					t.Fatalf("open memory ledger: %v", err)
				}
				return l
			},
		},
		{
			name: "sqlite-ledger",
			open: func(t *testing.T) domain.RunLedger {
				path := filepath.Join(t.TempDir(), "runs.db")
				l, err := core.OpenRunLedger(core.LedgerConfig{Driver: core.LedgerSQLite, SQLitePath: path})
				if err != nil {
					t.Fatalf("open sqlite ledger: %v", err)
				}
				return l
			},
		},
	}

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				fs, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return fs
			},
		},
		{
			name: "mock-s3-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMockS3ForTests() },
		},
	}

	seed := testhelper.NewSeed().
		Add("users", "USR003", domain.Record{"user_id": "USR003", "name": "Mara Quist", "email": "mara@example.com", "status": "active"}).
		Add("products", "PRD0002", domain.Record{"product_id": "PRD0002", "name": "Kettle", "category": "kitchen", "price": 45.0, "stock": 10, "status": "active"}).
		Snapshot()
	task := runner.Task{
		ID:     "smoke",
		UserID: "USR003",
		Actions: []runner.Action{
			{Name: "get_user_details", Kwargs: map[string]any{"user_id": "USR003"}},
			{Name: "place_order", Kwargs: map[string]any{
				"user_id": "USR003",
				"items":   []any{map[string]any{"product_id": "PRD0002", "qty": 2}},
			}},
		},
		Outputs: []string{"SO0001", "90"},
	}

	for _, lv := range ledgerVariants {
		for _, bv := range blobVariants {
			t.Run(lv.name+"/"+bv.name, func(t *testing.T) {
				ledger := lv.open(t)
				t.Cleanup(func() { _ = ledger.Close() })
				store := bv.open(t)

				if err := dataset.Save(ctx, store, ecommerce.Domain, seed); err != nil {
					t.Fatalf("save dataset: %v", err)
				}

				metrics := core.NewExpvarMetricsRecorder("")
				var traceBuffer bytes.Buffer
				tracer := core.NewJSONTracer(&traceBuffer)
				svc := core.NewService(core.WithMetricsRecorder(metrics), core.WithTracer(tracer))
				if _, err := plugins.Install(svc); err != nil {
					t.Fatalf("install plugins: %v", err)
				}
				specs, err := svc.Collections(ecommerce.Domain)
				if err != nil {
					t.Fatalf("collections: %v", err)
				}
				snap, err := dataset.Load(ctx, store, ecommerce.Domain, specs)
				if err != nil {
					t.Fatalf("load dataset: %v", err)
				}

				exporter := transcripts.NewExporter(store)
				r := runner.New(svc, runner.WithLedger(ledger), runner.WithSink(exporter))
				env := runner.Environment{Domain: ecommerce.Domain, Interface: ecommerce.CustomerInterface, Dataset: snap}
				tr, err := r.Run(ctx, env, task)
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				if tr.Reward != 1 || tr.Failures() != 0 {
					t.Fatalf("expected a clean rewarded run, got reward %v: %+v", tr.Reward, tr.Steps)
				}

				stored, err := exporter.Get(ctx, ecommerce.Domain, ecommerce.CustomerInterface, tr.RunID)
				if err != nil {
					t.Fatalf("read transcript: %v", err)
				}
				if len(stored.Steps) != 2 || !stored.Steps[1].Envelope.OK {
					t.Fatalf("unexpected stored transcript: %+v", stored)
				}
				recs, err := ledger.List(ctx, domain.RunFilter{Domain: ecommerce.Domain})
				if err != nil || len(recs) != 1 || recs[0].RunID != tr.RunID || recs[0].UserID != "USR003" {
					t.Fatalf("unexpected ledger records: %+v (%v)", recs, err)
				}

				// Runs work on a copy; the dataset blob keeps the original stock.
				reloaded, err := dataset.Load(ctx, store, ecommerce.Domain, specs)
				if err != nil {
					t.Fatalf("reload dataset: %v", err)
				}
				products := reloaded["products"]
				if len(products) != 1 || products[0].Record["stock"] != 10.0 {
					t.Fatalf("dataset blob changed: %+v", products)
				}

				snapshot := metrics.Snapshot()
				if snapshot.Results["ecommerce.place_order"]["success"] != 1 {
					t.Fatalf("expected place_order success metric: %+v", snapshot.Results)
				}
				if !strings.Contains(traceBuffer.String(), `"operation":"ecommerce.place_order"`) {
					t.Fatalf("expected trace entry for place_order, got %s", traceBuffer.String())
				}
			})
		}
	}
}
