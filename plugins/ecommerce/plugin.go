// Package ecommerce provides the storefront domain: customers browse products,
// place and pay for orders, and fulfilment staff ship and deliver them.
package ecommerce

import (
	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

// Domain is the plugin and dataset name.
const Domain = "ecommerce"

// Interfaces exposed by the plugin.
const (
	CustomerInterface   = "interface_1"
	FulfilmentInterface = "interface_2"
	pluginVersion       = "0.3.0"
)

// Plugin implements the ecommerce domain.
type Plugin struct{}

// New constructs an ecommerce plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return Domain }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return pluginVersion }

// Register declares collections, the order lifecycle and both tool surfaces.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterCollection(
		domain.CollectionSpec{Name: colUsers, IDPolicy: domain.IDPolicy{Prefix: "USR", Width: 3}},
		domain.CollectionSpec{Name: colProducts, IDPolicy: domain.IDPolicy{Prefix: "PRD", Width: 4}},
		domain.CollectionSpec{Name: colSalesOrders, IDPolicy: domain.IDPolicy{Prefix: "SO", Width: 4}},
	)
	registry.RegisterStateMachine(orderLifecycle)

	registry.RegisterTools(CustomerInterface,
		getUserDetails(),
		listProducts(),
		getProduct(),
		placeOrder(),
		confirmPayment(),
		cancelOrder(),
		getOrder(),
		listUserOrders(),
	)
	registry.RegisterTools(FulfilmentInterface,
		getOrder(),
		listUserOrders(),
		getProduct(),
		shipOrder(),
		deliverOrder(),
		cancelOrder(),
	)
	return nil
}
