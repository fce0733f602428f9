package ecommerce

import (
	"testing"

	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
	"toolcore/plugins/testhelper"
)

func storefront() memory.Snapshot {
	return testhelper.NewSeed().
		Add(colUsers, "USR003", domain.Record{"user_id": "USR003", "name": "Mara Quist", "email": "mara@example.com", "status": "active"}).
		Add(colUsers, "USR004", domain.Record{"user_id": "USR004", "name": "Ilya Brenn", "email": "ilya@example.com", "status": "suspended"}).
		Add(colProducts, "PRD0001", domain.Record{"product_id": "PRD0001", "name": "Desk lamp", "category": "home", "price": 30.0, "stock": 0, "status": "active"}).
		Add(colProducts, "PRD0002", domain.Record{"product_id": "PRD0002", "name": "Kettle", "category": "kitchen", "price": 45.0, "stock": 10, "status": "active", "warehouse": "W2"}).
		Snapshot()
}

func TestPluginRegistration(t *testing.T) {
	h := testhelper.New(t, New())
	meta := h.Service().RegisteredPlugins()
	if len(meta) != 1 || meta[0].Name != Domain {
		t.Fatalf("unexpected plugins: %+v", meta)
	}
	if got := len(meta[0].Interfaces[CustomerInterface]); got != 8 {
		t.Fatalf("expected 8 customer tools, got %d", got)
	}
	if got := len(meta[0].Interfaces[FulfilmentInterface]); got != 6 {
		t.Fatalf("expected 6 fulfilment tools, got %d", got)
	}
}

func TestPlaceAndConfirmOrder(t *testing.T) {
	s := testhelper.New(t, New()).Session(CustomerInterface, storefront())

	order := s.Object("place_order", map[string]any{
		"user_id": "USR003",
		"items":   []map[string]any{{"product_id": "PRD0002", "qty": 3, "unit_price": 45.0}},
	})
	id, _ := order["sales_order_id"].(string)
	if id != "SO0001" {
		t.Fatalf("expected minted id SO0001, got %v", order["sales_order_id"])
	}
	if order["status"] != StatusPending || order["total_amount"] != 135.0 {
		t.Fatalf("unexpected order: %v", order)
	}
	if order["created_at"] != testhelper.NowString {
		t.Fatalf("expected store timestamp, got %v", order["created_at"])
	}
	product := s.Record(colProducts, "PRD0002")
	if product["stock"] != 7.0 || product["warehouse"] != "W2" {
		t.Fatalf("expected stock reserved and extra fields kept, got %v", product)
	}

	confirmed := s.Object("confirm_payment", map[string]any{"sales_order_id": id})
	if confirmed["status"] != StatusConfirmed {
		t.Fatalf("expected Confirmed, got %v", confirmed["status"])
	}
	s.Fail("confirm_payment", map[string]any{"sales_order_id": id}, domain.KindInvalidState)

	got := s.Object("get_order", map[string]any{"sales_order_id": id})
	if got["status"] != StatusConfirmed {
		t.Fatalf("round trip: %v", got)
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	s := testhelper.New(t, New()).Session(CustomerInterface, storefront())
	cases := []struct {
		name string
		args map[string]any
		kind domain.ErrorKind
	}{
		{"unknown user", map[string]any{"user_id": "USR999", "items": []map[string]any{{"product_id": "PRD0002", "qty": 1}}}, domain.KindNotFound},
		{"suspended user", map[string]any{"user_id": "USR004", "items": []map[string]any{{"product_id": "PRD0002", "qty": 1}}}, domain.KindInvalidState},
		{"no items", map[string]any{"user_id": "USR003", "items": []map[string]any{}}, domain.KindInvalidArgument},
		{"out of stock", map[string]any{"user_id": "USR003", "items": []map[string]any{{"product_id": "PRD0001", "qty": 1}}}, domain.KindInvalidArgument},
		{"over-reserved across lines", map[string]any{"user_id": "USR003", "items": []map[string]any{
			{"product_id": "PRD0002", "qty": 6}, {"product_id": "PRD0002", "qty": 5},
		}}, domain.KindInvalidArgument},
		{"unknown product", map[string]any{"user_id": "USR003", "items": []map[string]any{{"product_id": "PRD0404", "qty": 1}}}, domain.KindNotFound},
		{"missing items", map[string]any{"user_id": "USR003"}, domain.KindInvalidArgument},
		{"qty as text", map[string]any{"user_id": "USR003", "items": []map[string]any{{"product_id": "PRD0002", "qty": "two"}}}, domain.KindInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s.Fail("place_order", tc.args, tc.kind)
		})
	}
}

func TestCancelRestocksAndIsTerminal(t *testing.T) {
	h := testhelper.New(t, New())
	seed := storefront()
	customer := h.Session(CustomerInterface, seed)
	order := customer.Object("place_order", map[string]any{
		"user_id": "USR003",
		"items":   []map[string]any{{"product_id": "PRD0002", "qty": 4}},
	})
	id := order["sales_order_id"]
	if order["total_amount"] != 180.0 {
		t.Fatalf("expected catalog price total, got %v", order["total_amount"])
	}
	cancelled := customer.Object("cancel_order", map[string]any{"sales_order_id": id, "reason": "changed mind"})
	if cancelled["status"] != StatusCancelled || cancelled["cancel_reason"] != "changed mind" {
		t.Fatalf("unexpected cancellation: %v", cancelled)
	}
	if stock := customer.Record(colProducts, "PRD0002")["stock"]; stock != 10.0 {
		t.Fatalf("expected stock restored, got %v", stock)
	}
	customer.Fail("confirm_payment", map[string]any{"sales_order_id": id}, domain.KindInvalidState)
	customer.Fail("cancel_order", map[string]any{"sales_order_id": id}, domain.KindInvalidState)
}

func TestFulfilmentFlow(t *testing.T) {
	h := testhelper.New(t, New())
	seed := testhelper.NewSeed().
		Add(colUsers, "USR003", domain.Record{"user_id": "USR003", "name": "Mara", "status": "active"}).
		Add(colSalesOrders, "SO0007", domain.Record{
			"sales_order_id": "SO0007", "user_id": "USR003", "status": StatusConfirmed,
			"items": []any{}, "total_amount": 12.5, "created_at": "2025-06-01T00:00:00Z", "updated_at": "2025-06-01T00:00:00Z",
		}).
		Snapshot()
	s := h.Session(FulfilmentInterface, seed)

	s.Fail("deliver_order", map[string]any{"sales_order_id": "SO0007"}, domain.KindInvalidState)
	s.Fail("ship_order", map[string]any{"sales_order_id": "SO0007", "tracking_code": ""}, domain.KindInvalidArgument)
	shipped := s.Object("ship_order", map[string]any{"sales_order_id": "SO0007", "tracking_code": "1Z999"})
	if shipped["tracking_code"] != "1Z999" || shipped["updated_at"] != testhelper.NowString {
		t.Fatalf("unexpected shipment: %v", shipped)
	}
	s.Fail("cancel_order", map[string]any{"sales_order_id": "SO0007"}, domain.KindInvalidState)
	delivered := s.Object("deliver_order", map[string]any{"sales_order_id": "SO0007"})
	if delivered["status"] != StatusDelivered {
		t.Fatalf("expected Delivered, got %v", delivered["status"])
	}

	orders := s.List("list_user_orders", map[string]any{"user_id": "USR003", "status": StatusDelivered})
	if len(orders) != 1 {
		t.Fatalf("expected one delivered order, got %d", len(orders))
	}
	s.Fail("list_user_orders", map[string]any{"user_id": "USR003", "status": "Lost"}, domain.KindInvalidArgument)
	s.Fail("place_order", map[string]any{"user_id": "USR003"}, domain.KindUnknownTool)
}

func TestListProductsFiltersAndReadsAreIdempotent(t *testing.T) {
	s := testhelper.New(t, New()).Session(CustomerInterface, storefront())
	inStock := s.List("list_products", map[string]any{"in_stock_only": true})
	if len(inStock) != 1 || inStock[0]["product_id"] != "PRD0002" {
		t.Fatalf("unexpected in-stock products: %v", inStock)
	}
	first := s.Do("list_products", nil)
	second := s.Do("list_products", nil)
	if string(first.Value) != string(second.Value) {
		t.Fatalf("reads differ: %s vs %s", first.Value, second.Value)
	}
	if kitchen := s.List("list_products", map[string]any{"category": "kitchen"}); len(kitchen) != 1 {
		t.Fatalf("expected one kitchen product, got %d", len(kitchen))
	}
}
