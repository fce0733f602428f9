// Package finance provides the retail banking domain: invoices and their
// payments for customer service, and approval-gated treasury operations on
// accounts and virtual cards.
package finance

import (
	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

// Domain is the plugin and dataset name.
const Domain = "finance"

// Interfaces exposed by the plugin.
const (
	ServiceInterface  = "interface_1"
	TreasuryInterface = "interface_2"
	pluginVersion     = "0.4.1"
)

// Plugin implements the finance domain.
type Plugin struct{}

// New constructs a finance plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return Domain }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return pluginVersion }

// Register declares collections, lifecycles and both tool surfaces.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterCollection(
		domain.CollectionSpec{Name: colCustomers, IDPolicy: domain.IDPolicy{Prefix: "CUST", Width: 6}},
		domain.CollectionSpec{Name: colAccounts, IDPolicy: domain.IDPolicy{Prefix: "ACC", Width: 10}},
		domain.CollectionSpec{Name: colInvoices},
		domain.CollectionSpec{Name: colPayments, IDPolicy: domain.IDPolicy{Prefix: "PMT", Width: 5}},
		domain.CollectionSpec{Name: colVirtualCards, IDPolicy: domain.IDPolicy{Prefix: "VC", Width: 4}},
		domain.CollectionSpec{Name: colApprovals, IDPolicy: domain.IDPolicy{Prefix: "APR", Width: 4}},
	)
	registry.RegisterStateMachine(invoiceLifecycle)
	registry.RegisterStateMachine(cardLifecycle)
	registry.RegisterRule(nonNegativeBalanceRule{})

	registry.RegisterTools(ServiceInterface,
		getCustomerDetails(),
		listOverdueInvoices(),
		createInvoice(),
		getInvoice(),
		createInvoicePayment(),
		deletePayment(),
		deleteInvoice(),
	)
	registry.RegisterTools(TreasuryInterface,
		approvalLookup(),
		getAccount(),
		transferFunds(),
		issueVirtualCard(),
		setCardStatus("block_virtual_card", "Block an active virtual card.", CardBlocked),
		setCardStatus("unblock_virtual_card", "Reactivate a blocked virtual card.", CardActive),
		setCardStatus("expire_virtual_card", "Expire a virtual card permanently.", CardExpired),
		setCardStatus("revoke_virtual_card", "Revoke a virtual card permanently.", CardRevoked),
		deleteInvoiceByID(),
	)
	return nil
}
