package core

import (
	"context"
	"time"

	"toolcore/pkg/domain"
)

const (
	testDomain = "shop"
	testIface  = "interface_1"
	colItems   = domain.Collection("items")
)

var itemMachine = domain.StateMachine{
	Collection:  colItems,
	Entity:      "item",
	States:      []string{"draft", "listed", "retired"},
	Transitions: map[string][]string{"draft": {"listed", "retired"}, "listed": {"retired"}},
	Terminal:    []string{"retired"},
}

type item struct {
	ID        domain.ID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Stock     int       `json:"stock"`
	CreatedAt string    `json:"created_at,omitempty"`
}

var items = domain.NewTable[item](colItems, "item")

type createItemInput struct {
	Name  string `json:"name" jsonschema:"display name"`
	Stock int    `json:"stock,omitempty" jsonschema:"initial stock"`
}

type itemRef struct {
	ItemID domain.ID `json:"item_id"`
}

type setStatusInput struct {
	ItemID domain.ID `json:"item_id"`
	Status string    `json:"status"`
}

func createItem(tx domain.Tx, in createItemInput) (any, error) {
	id, err := items.Mint(tx)
	if err != nil {
		return nil, err
	}
	it := item{ID: domain.ID(id), Name: in.Name, Status: "draft", Stock: in.Stock, CreatedAt: tx.Now()}
	if err := items.Insert(tx, id, it); err != nil {
		return nil, err
	}
	return it, nil
}

func getItem(tx domain.Tx, in itemRef) (any, error) {
	return items.Get(tx, in.ItemID.String())
}

// forceStatus writes the status without checking the machine so the commit
// rule is what rejects bad moves.
func forceStatus(tx domain.Tx, in setStatusInput) (any, error) {
	it, err := items.Get(tx, in.ItemID.String())
	if err != nil {
		return nil, err
	}
	it.Status = in.Status
	return it, items.Put(tx, in.ItemID.String(), it)
}

// createThenFail writes a record and then reports a typed error.
func createThenFail(tx domain.Tx, in createItemInput) (any, error) {
	if _, err := createItem(tx, in); err != nil {
		return nil, err
	}
	return nil, domain.ErrInvalidArgument{Field: "name", Reason: "rejected after write"}
}

func sneakyRead(tx domain.Tx, _ struct{}) (any, error) {
	return nil, tx.Put(colItems, "99", domain.Record{"id": "99"})
}

func explode(domain.Tx, struct{}) (any, error) {
	panic("kaboom")
}

func plainError(domain.Tx, struct{}) (any, error) {
	return nil, context.DeadlineExceeded
}

func slowTool(tx domain.Tx, in createItemInput) (any, error) {
	time.Sleep(20 * time.Millisecond)
	return createItem(tx, in)
}

type shopPlugin struct{}

func (shopPlugin) Name() string    { return testDomain }
func (shopPlugin) Version() string { return "0.1.0" }

func (shopPlugin) Register(r *PluginRegistry) error {
	r.RegisterCollection(domain.CollectionSpec{Name: colItems})
	r.RegisterStateMachine(itemMachine)
	r.RegisterTools(testIface,
		NewTool("create_item", "Create a catalogue item.", createItem),
		NewTool("get_item", "Fetch an item by id.", getItem, ReadOnly()),
		NewTool("force_status", "Set an item status.", forceStatus),
		NewTool("create_then_fail", "Write then fail.", createThenFail),
		NewTool("sneaky_read", "Claims to be read-only.", sneakyRead, ReadOnly()),
		NewTool("explode", "Panics.", explode),
		NewTool("plain_error", "Returns an untyped error.", plainError),
		NewTool("slow_create", "Create slowly.", slowTool),
	)
	r.RegisterTool("interface_2", NewTool("get_item", "Fetch an item by id.", getItem, IdentityCheck()))
	return nil
}

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
}

func newShopService(opts ...Option) *Service {
	svc := NewService(append([]Option{WithClock(fixedClock())}, opts...)...)
	if _, err := svc.InstallPlugin(shopPlugin{}); err != nil {
		panic(err)
	}
	return svc
}

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

func (c *captureLogger) has(call string) bool {
	for _, got := range c.calls {
		if got == call {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetrics struct{ calls []metricsCall }

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}
