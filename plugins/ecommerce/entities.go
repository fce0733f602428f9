package ecommerce

import "toolcore/pkg/domain"

const (
	colUsers       domain.Collection = "users"
	colProducts    domain.Collection = "products"
	colSalesOrders domain.Collection = "sales_orders"
)

// Order statuses.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

// User is a customer account.
type User struct {
	UserID  domain.ID `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Address string    `json:"address,omitempty"`
	Status  string    `json:"status"`
}

// Product is a sellable catalog item with its on-hand stock.
type Product struct {
	ProductID domain.ID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Status    string    `json:"status"`
	UpdatedAt string    `json:"updated_at,omitempty"`
}

// LineItem is one product line of a sales order.
type LineItem struct {
	ProductID domain.ID `json:"product_id"`
	Quantity  int       `json:"qty"`
	UnitPrice float64   `json:"unit_price"`
}

// SalesOrder is a customer order moving through the order lifecycle.
type SalesOrder struct {
	SalesOrderID domain.ID  `json:"sales_order_id"`
	UserID       domain.ID  `json:"user_id"`
	Items        []LineItem `json:"items"`
	TotalAmount  float64    `json:"total_amount"`
	Status       string     `json:"status"`
	TrackingCode string     `json:"tracking_code,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

var (
	users    = domain.NewTable[User](colUsers, "user")
	products = domain.NewTable[Product](colProducts, "product")
	orders   = domain.NewTable[SalesOrder](colSalesOrders, "sales_order")
)

// orderLifecycle allows Pending < Confirmed < Shipped < Delivered, with
// cancellation from the first two.
var orderLifecycle = domain.StateMachine{
	Collection: colSalesOrders,
	Entity:     "sales_order",
	States:     []string{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled},
	Transitions: map[string][]string{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusShipped, StatusCancelled},
		StatusShipped:   {StatusDelivered},
	},
	Terminal: []string{StatusDelivered, StatusCancelled},
	Order:    []string{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered},
}
