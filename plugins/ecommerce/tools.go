package ecommerce

import (
	"fmt"
	"math"
	"sort"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type userRef struct {
	UserID domain.ID `json:"user_id" jsonschema:"customer id such as USR003"`
}

type productRef struct {
	ProductID domain.ID `json:"product_id" jsonschema:"product id such as PRD0002"`
}

type orderRef struct {
	SalesOrderID domain.ID `json:"sales_order_id" jsonschema:"sales order id such as SO0001"`
}

type listProductsInput struct {
	Category    string `json:"category,omitempty" jsonschema:"only products in this category"`
	InStockOnly bool   `json:"in_stock_only,omitempty" jsonschema:"skip products with no stock"`
}

type orderItemInput struct {
	ProductID domain.ID `json:"product_id" jsonschema:"product to order"`
	Quantity  int       `json:"qty" jsonschema:"units to order"`
	UnitPrice *float64  `json:"unit_price,omitempty" jsonschema:"agreed unit price; defaults to the catalog price"`
}

type placeOrderInput struct {
	UserID domain.ID        `json:"user_id" jsonschema:"customer placing the order"`
	Items  []orderItemInput `json:"items" jsonschema:"order lines"`
}

type shipOrderInput struct {
	SalesOrderID domain.ID `json:"sales_order_id" jsonschema:"order to ship"`
	TrackingCode string    `json:"tracking_code" jsonschema:"carrier tracking code"`
}

type cancelOrderInput struct {
	SalesOrderID domain.ID `json:"sales_order_id" jsonschema:"order to cancel"`
	Reason       string    `json:"reason,omitempty" jsonschema:"why the order is cancelled"`
}

type listUserOrdersInput struct {
	UserID domain.ID `json:"user_id" jsonschema:"customer whose orders are listed"`
	Status string    `json:"status,omitempty" jsonschema:"only orders in this status"`
}

func getUserDetails() core.Descriptor {
	return core.NewTool("get_user_details",
		"Return a customer's profile. Call it first to verify the customer before acting for them.",
		func(tx domain.Tx, in userRef) (any, error) {
			return users.Get(tx, in.UserID.String())
		}, core.IdentityCheck())
}

func listProducts() core.Descriptor {
	return core.NewTool("list_products",
		"List catalog products ordered by product id.",
		func(tx domain.Tx, in listProductsInput) (any, error) {
			out, err := products.Filter(tx, func(p Product) bool {
				if in.Category != "" && p.Category != in.Category {
					return false
				}
				return !in.InStockOnly || p.Stock > 0
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
			return out, nil
		}, core.ReadOnly())
}

func getProduct() core.Descriptor {
	return core.NewTool("get_product",
		"Return a product with its price and stock.",
		func(tx domain.Tx, in productRef) (any, error) {
			return products.Get(tx, in.ProductID.String())
		}, core.ReadOnly())
}

func placeOrder() core.Descriptor {
	return core.NewTool("place_order",
		"Create a Pending sales order for a customer and reserve stock for every line.",
		func(tx domain.Tx, in placeOrderInput) (any, error) {
			user, err := users.Get(tx, in.UserID.String())
			if err != nil {
				return nil, err
			}
			if user.Status != "" && user.Status != "active" {
				return nil, domain.ErrInvalidState{Entity: "user", ID: user.UserID.String(), From: user.Status}
			}
			if len(in.Items) == 0 {
				return nil, domain.ErrInvalidArgument{Field: "items", Reason: "at least one item is required"}
			}
			lines := make([]LineItem, 0, len(in.Items))
			var total float64
			for _, item := range in.Items {
				line, err := reserve(tx, item)
				if err != nil {
					return nil, err
				}
				lines = append(lines, line)
				total += float64(line.Quantity) * line.UnitPrice
			}
			id, err := orders.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			order := SalesOrder{
				SalesOrderID: domain.ID(id),
				UserID:       user.UserID,
				Items:        lines,
				TotalAmount:  roundCents(total),
				Status:       StatusPending,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := orders.Insert(tx, id, order); err != nil {
				return nil, err
			}
			return order, nil
		})
}

func reserve(tx domain.Tx, item orderItemInput) (LineItem, error) {
	if item.Quantity < 1 {
		return LineItem{}, domain.ErrInvalidArgument{Field: "qty", Reason: "must be at least 1"}
	}
	p, err := products.Get(tx, item.ProductID.String())
	if err != nil {
		return LineItem{}, err
	}
	if p.Status != "" && p.Status != "active" {
		return LineItem{}, domain.ErrInvalidState{Entity: "product", ID: p.ProductID.String(), From: p.Status}
	}
	if p.Stock < item.Quantity {
		return LineItem{}, domain.ErrInvalidArgument{
			Field:  "qty",
			Reason: fmt.Sprintf("only %d of %s in stock", p.Stock, p.ProductID),
		}
	}
	price := p.Price
	if item.UnitPrice != nil {
		price = *item.UnitPrice
	}
	if price < 0 {
		return LineItem{}, domain.ErrInvalidArgument{Field: "unit_price", Reason: "must not be negative"}
	}
	p.Stock -= item.Quantity
	p.UpdatedAt = tx.Now()
	if err := products.Put(tx, p.ProductID.String(), p); err != nil {
		return LineItem{}, err
	}
	return LineItem{ProductID: p.ProductID, Quantity: item.Quantity, UnitPrice: price}, nil
}

func confirmPayment() core.Descriptor {
	return core.NewTool("confirm_payment",
		"Record payment for a Pending order and move it to Confirmed.",
		func(tx domain.Tx, in orderRef) (any, error) {
			return advance(tx, in.SalesOrderID, StatusConfirmed, nil)
		})
}

func shipOrder() core.Descriptor {
	return core.NewTool("ship_order",
		"Hand a Confirmed order to the carrier and move it to Shipped.",
		func(tx domain.Tx, in shipOrderInput) (any, error) {
			if in.TrackingCode == "" {
				return nil, domain.ErrInvalidArgument{Field: "tracking_code", Reason: "required"}
			}
			return advance(tx, in.SalesOrderID, StatusShipped, func(o *SalesOrder) {
				o.TrackingCode = in.TrackingCode
			})
		})
}

func deliverOrder() core.Descriptor {
	return core.NewTool("deliver_order",
		"Mark a Shipped order as Delivered.",
		func(tx domain.Tx, in orderRef) (any, error) {
			return advance(tx, in.SalesOrderID, StatusDelivered, nil)
		})
}

func cancelOrder() core.Descriptor {
	return core.NewTool("cancel_order",
		"Cancel a Pending or Confirmed order and return its reserved stock.",
		func(tx domain.Tx, in cancelOrderInput) (any, error) {
			order, err := advance(tx, in.SalesOrderID, StatusCancelled, func(o *SalesOrder) {
				o.CancelReason = in.Reason
			})
			if err != nil {
				return nil, err
			}
			for _, line := range order.Items {
				p, ok := products.Find(tx, line.ProductID.String())
				if !ok {
					continue
				}
				p.Stock += line.Quantity
				p.UpdatedAt = tx.Now()
				if err := products.Put(tx, p.ProductID.String(), p); err != nil {
					return nil, err
				}
			}
			return order, nil
		})
}

func getOrder() core.Descriptor {
	return core.NewTool("get_order",
		"Return a sales order with its lines and status.",
		func(tx domain.Tx, in orderRef) (any, error) {
			return orders.Get(tx, in.SalesOrderID.String())
		}, core.ReadOnly())
}

func listUserOrders() core.Descriptor {
	return core.NewTool("list_user_orders",
		"List a customer's orders ordered by order id, optionally filtered by status.",
		func(tx domain.Tx, in listUserOrdersInput) (any, error) {
			if !users.Exists(tx, in.UserID.String()) {
				return nil, domain.ErrNotFound{Entity: "user", ID: in.UserID.String()}
			}
			out, err := orders.Filter(tx, func(o SalesOrder) bool {
				return o.UserID == in.UserID && (in.Status == "" || o.Status == in.Status)
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool { return out[i].SalesOrderID < out[j].SalesOrderID })
			return out, nil
		}, core.ReadOnly(), core.WithEnum("status", orderLifecycle.States...))
}

// advance moves an order one step along its lifecycle and stamps it.
func advance(tx domain.Tx, id domain.ID, to string, mutate func(*SalesOrder)) (SalesOrder, error) {
	order, err := orders.Get(tx, id.String())
	if err != nil {
		return SalesOrder{}, err
	}
	if err := orderLifecycle.Transition(id.String(), order.Status, to); err != nil {
		return SalesOrder{}, err
	}
	order.Status = to
	order.UpdatedAt = tx.Now()
	if mutate != nil {
		mutate(&order)
	}
	if err := orders.Put(tx, id.String(), order); err != nil {
		return SalesOrder{}, err
	}
	return order, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
