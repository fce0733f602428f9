package finance

import "toolcore/pkg/domain"

const (
	colCustomers    domain.Collection = "customers"
	colAccounts     domain.Collection = "accounts"
	colInvoices     domain.Collection = "invoices"
	colPayments     domain.Collection = "payments"
	colVirtualCards domain.Collection = "virtual_cards"
	colApprovals    domain.Collection = "approvals"
)

// Invoice statuses.
const (
	InvoiceUnpaid        = "unpaid"
	InvoicePartiallyPaid = "partially_paid"
	InvoicePaid          = "paid"
)

// Virtual card statuses.
const (
	CardActive  = "active"
	CardBlocked = "blocked"
	CardExpired = "expired"
	CardRevoked = "revoked"
)

// Customer is a banking customer.
type Customer struct {
	CustomerID domain.ID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Status     string    `json:"status,omitempty"`
}

// Account is a funded account owned by a customer.
type Account struct {
	AccountID  domain.ID `json:"account_id"`
	CustomerID domain.ID `json:"customer_id"`
	Type       string    `json:"account_type,omitempty"`
	Balance    float64   `json:"balance"`
	Currency   string    `json:"currency,omitempty"`
	Status     string    `json:"status,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
}

// Invoice is an amount owed by a customer.
type Invoice struct {
	InvoiceID  domain.ID `json:"invoice_id"`
	CustomerID domain.ID `json:"customer_id"`
	Amount     float64   `json:"amount"`
	AmountPaid float64   `json:"amount_paid"`
	DueDate    string    `json:"due_date"`
	Status     string    `json:"status"`
	IssuedAt   string    `json:"issued_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
}

// Outstanding returns the unpaid remainder.
func (i Invoice) Outstanding() float64 {
	return roundCents(i.Amount - i.AmountPaid)
}

// Payment settles part or all of an invoice from an account.
type Payment struct {
	PaymentID domain.ID `json:"payment_id"`
	InvoiceID domain.ID `json:"invoice_id"`
	AccountID domain.ID `json:"account_id"`
	Amount    float64   `json:"amount"`
	CreatedAt string    `json:"created_at"`
}

// VirtualCard is a spending card bound to an account.
type VirtualCard struct {
	CardID        domain.ID `json:"card_id"`
	AccountID     domain.ID `json:"account_id"`
	CustomerID    domain.ID `json:"customer_id"`
	SpendingLimit float64   `json:"spending_limit"`
	Status        string    `json:"status"`
	IssuedAt      string    `json:"issued_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// Approval grants an operator permission to run a gated action.
type Approval struct {
	ApprovalCode domain.ID `json:"approval_code"`
	Action       string    `json:"action"`
	ApprovedBy   string    `json:"approved_by,omitempty"`
	AmountLimit  float64   `json:"amount_limit,omitempty"`
	Status       string    `json:"status"`
}

var (
	customers = domain.NewTable[Customer](colCustomers, "customer")
	accounts  = domain.NewTable[Account](colAccounts, "account")
	invoices  = domain.NewTable[Invoice](colInvoices, "invoice")
	payments  = domain.NewTable[Payment](colPayments, "payment")
	cards     = domain.NewTable[VirtualCard](colVirtualCards, "virtual_card")
	approvals = domain.NewTable[Approval](colApprovals, "approval")
)

// invoiceLifecycle is unordered: deleting a payment reopens an invoice.
var invoiceLifecycle = domain.StateMachine{
	Collection: colInvoices,
	Entity:     "invoice",
	States:     []string{InvoiceUnpaid, InvoicePartiallyPaid, InvoicePaid},
}

var cardLifecycle = domain.StateMachine{
	Collection: colVirtualCards,
	Entity:     "virtual_card",
	States:     []string{CardActive, CardBlocked, CardExpired, CardRevoked},
	Transitions: map[string][]string{
		CardActive:  {CardBlocked, CardExpired, CardRevoked},
		CardBlocked: {CardActive, CardExpired, CardRevoked},
	},
	Terminal: []string{CardExpired, CardRevoked},
}

// invoiceStatus derives the status implied by the paid amount.
func invoiceStatus(inv Invoice) string {
	switch {
	case inv.AmountPaid <= 0:
		return InvoiceUnpaid
	case inv.Outstanding() <= 0:
		return InvoicePaid
	default:
		return InvoicePartiallyPaid
	}
}
