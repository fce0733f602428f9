package finance

import (
	"sort"
	"strconv"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type customerRef struct {
	UserID domain.ID `json:"user_id" jsonschema:"customer id such as CUST714697"`
}

type invoiceRef struct {
	InvoiceID domain.ID `json:"invoice_id" jsonschema:"invoice id"`
}

type bareInvoiceRef struct {
	ID domain.ID `json:"id" jsonschema:"invoice id"`
}

type paymentRef struct {
	PaymentID domain.ID `json:"payment_id" jsonschema:"payment id such as PMT00001"`
}

type accountRef struct {
	AccountID domain.ID `json:"account_id" jsonschema:"account id"`
}

type cardRef struct {
	CardID domain.ID `json:"card_id" jsonschema:"virtual card id such as VC0001"`
}

type approvalRef struct {
	ApprovalCode domain.ID `json:"approval_code" jsonschema:"approval code issued by a supervisor"`
}

type listOverdueInput struct {
	CustomerID domain.ID `json:"customer_id,omitempty" jsonschema:"only invoices of this customer"`
	AsOf       string    `json:"as_of,omitempty" jsonschema:"reference date (YYYY-MM-DD); defaults to today"`
}

type createInvoiceInput struct {
	CustomerID domain.ID `json:"customer_id" jsonschema:"customer billed"`
	Amount     float64   `json:"amount" jsonschema:"amount due"`
	DueDate    string    `json:"due_date" jsonschema:"due date (YYYY-MM-DD)"`
}

type createPaymentInput struct {
	InvoiceID domain.ID `json:"invoice_id" jsonschema:"invoice being paid"`
	Amount    float64   `json:"amount" jsonschema:"amount to pay"`
	AccountID domain.ID `json:"account_id" jsonschema:"account debited"`
}

type transferInput struct {
	FromAccountID domain.ID `json:"from_account_id" jsonschema:"account debited"`
	ToAccountID   domain.ID `json:"to_account_id" jsonschema:"account credited"`
	Amount        float64   `json:"amount" jsonschema:"amount to move"`
	ApprovalCode  domain.ID `json:"approval_code" jsonschema:"approval authorizing the transfer"`
}

type issueCardInput struct {
	AccountID     domain.ID `json:"account_id" jsonschema:"account the card draws on"`
	SpendingLimit float64   `json:"spending_limit" jsonschema:"maximum spend per billing cycle"`
}

// Transfer reports the balances after a completed transfer.
type Transfer struct {
	FromAccountID domain.ID `json:"from_account_id"`
	ToAccountID   domain.ID `json:"to_account_id"`
	Amount        float64   `json:"amount"`
	FromBalance   float64   `json:"from_balance"`
	ToBalance     float64   `json:"to_balance"`
}

func getCustomerDetails() core.Descriptor {
	return core.NewTool("get_customer_details",
		"Return a customer's profile. Call it first to verify who you are speaking with.",
		func(tx domain.Tx, in customerRef) (any, error) {
			return customers.Get(tx, in.UserID.String())
		}, core.IdentityCheck())
}

func listOverdueInvoices() core.Descriptor {
	return core.NewTool("list_overdue_invoices",
		"List invoices past their due date that are not fully paid, oldest first.",
		func(tx domain.Tx, in listOverdueInput) (any, error) {
			asOf := in.AsOf
			if asOf == "" {
				asOf = tx.Now()[:len("2006-01-02")]
			} else if err := checkDate("as_of", asOf); err != nil {
				return nil, err
			}
			out, err := invoices.Filter(tx, func(inv Invoice) bool {
				if in.CustomerID != "" && inv.CustomerID != in.CustomerID {
					return false
				}
				return inv.Status != InvoicePaid && inv.DueDate < asOf
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool {
				if out[i].DueDate != out[j].DueDate {
					return out[i].DueDate < out[j].DueDate
				}
				return numericLess(out[i].InvoiceID, out[j].InvoiceID)
			})
			return out, nil
		}, core.ReadOnly())
}

func createInvoice() core.Descriptor {
	return core.NewTool("create_invoice",
		"Issue a new unpaid invoice to a customer.",
		func(tx domain.Tx, in createInvoiceInput) (any, error) {
			if !customers.Exists(tx, in.CustomerID.String()) {
				return nil, domain.ErrNotFound{Entity: "customer", ID: in.CustomerID.String()}
			}
			if err := checkDate("due_date", in.DueDate); err != nil {
				return nil, err
			}
			id, err := invoices.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			inv := Invoice{
				InvoiceID:  domain.ID(id),
				CustomerID: in.CustomerID,
				Amount:     roundCents(in.Amount),
				DueDate:    in.DueDate,
				Status:     InvoiceUnpaid,
				IssuedAt:   now,
				UpdatedAt:  now,
			}
			if err := invoices.Insert(tx, id, inv); err != nil {
				return nil, err
			}
			return inv, nil
		}, core.WithMinimum("amount", 0.01))
}

func getInvoice() core.Descriptor {
	return core.NewTool("get_invoice",
		"Return an invoice with its paid amount and status.",
		func(tx domain.Tx, in invoiceRef) (any, error) {
			return invoices.Get(tx, in.InvoiceID.String())
		}, core.ReadOnly())
}

func createInvoicePayment() core.Descriptor {
	return core.NewTool("create_invoice_payment",
		"Pay an invoice from one of the invoiced customer's accounts.",
		func(tx domain.Tx, in createPaymentInput) (any, error) {
			inv, err := invoices.Get(tx, in.InvoiceID.String())
			if err != nil {
				return nil, err
			}
			if inv.Status == InvoicePaid {
				return nil, domain.ErrInvalidState{Entity: "invoice", ID: inv.InvoiceID.String(), From: inv.Status}
			}
			amount := roundCents(in.Amount)
			if amount > inv.Outstanding() {
				return nil, domain.ErrInvalidArgument{Field: "amount", Reason: "exceeds the outstanding balance of " + strconv.FormatFloat(inv.Outstanding(), 'f', 2, 64)}
			}
			acct, err := accounts.Get(tx, in.AccountID.String())
			if err != nil {
				return nil, err
			}
			if acct.CustomerID != inv.CustomerID {
				return nil, domain.ErrAuthorizationDenied{Code: "account_not_owned", Reason: "account does not belong to the invoiced customer"}
			}
			if acct.Balance < amount {
				return nil, domain.ErrInvalidArgument{Field: "amount", Reason: "insufficient funds"}
			}
			now := tx.Now()
			acct.Balance = roundCents(acct.Balance - amount)
			acct.UpdatedAt = now
			if err := accounts.Put(tx, acct.AccountID.String(), acct); err != nil {
				return nil, err
			}
			if err := applyPayment(tx, inv, amount); err != nil {
				return nil, err
			}
			id, err := payments.Mint(tx)
			if err != nil {
				return nil, err
			}
			pmt := Payment{PaymentID: domain.ID(id), InvoiceID: inv.InvoiceID, AccountID: acct.AccountID, Amount: amount, CreatedAt: now}
			if err := payments.Insert(tx, id, pmt); err != nil {
				return nil, err
			}
			return pmt, nil
		}, core.WithMinimum("amount", 0.01))
}

// applyPayment adds amount (negative to reverse) to the invoice and moves its
// status accordingly.
func applyPayment(tx domain.Tx, inv Invoice, amount float64) error {
	inv.AmountPaid = roundCents(inv.AmountPaid + amount)
	if inv.AmountPaid < 0 {
		inv.AmountPaid = 0
	}
	if next := invoiceStatus(inv); next != inv.Status {
		if err := invoiceLifecycle.Transition(inv.InvoiceID.String(), inv.Status, next); err != nil {
			return err
		}
		inv.Status = next
	}
	inv.UpdatedAt = tx.Now()
	return invoices.Put(tx, inv.InvoiceID.String(), inv)
}

func deletePayment() core.Descriptor {
	return core.NewTool("delete_payment",
		"Reverse a payment: refund the account, reopen the invoice and remove the payment.",
		func(tx domain.Tx, in paymentRef) (any, error) {
			pmt, err := payments.Delete(tx, in.PaymentID.String())
			if err != nil {
				return nil, err
			}
			if acct, ok := accounts.Find(tx, pmt.AccountID.String()); ok {
				acct.Balance = roundCents(acct.Balance + pmt.Amount)
				acct.UpdatedAt = tx.Now()
				if err := accounts.Put(tx, acct.AccountID.String(), acct); err != nil {
					return nil, err
				}
			}
			if inv, ok := invoices.Find(tx, pmt.InvoiceID.String()); ok {
				if err := applyPayment(tx, inv, -pmt.Amount); err != nil {
					return nil, err
				}
			}
			return pmt, nil
		})
}

func deleteInvoice() core.Descriptor {
	return core.NewTool("delete_invoice",
		"Delete an invoice that has no payments recorded against it.",
		func(tx domain.Tx, in invoiceRef) (any, error) {
			return removeInvoice(tx, in.InvoiceID)
		})
}

func deleteInvoiceByID() core.Descriptor {
	return core.NewTool("delete_invoice",
		"Delete an invoice by id. Invoices with payments cannot be deleted.",
		func(tx domain.Tx, in bareInvoiceRef) (any, error) {
			return removeInvoice(tx, in.ID)
		})
}

func removeInvoice(tx domain.Tx, id domain.ID) (any, error) {
	if !invoices.Exists(tx, id.String()) {
		return nil, domain.ErrNotFound{Entity: "invoice", ID: id.String()}
	}
	linked, err := payments.Filter(tx, func(p Payment) bool { return p.InvoiceID == id })
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 {
		return nil, domain.ErrConflictingReference{Entity: "invoice", ID: id.String(), Related: "payment", RelatedID: linked[0].PaymentID.String()}
	}
	return invoices.Delete(tx, id.String())
}

func approvalLookup() core.Descriptor {
	return core.NewTool("approval_lookup",
		"Verify an approval code before running a treasury operation.",
		func(tx domain.Tx, in approvalRef) (any, error) {
			approval, err := approvals.Get(tx, in.ApprovalCode.String())
			if err != nil {
				return nil, err
			}
			if approval.Status != "approved" {
				return nil, domain.ErrAuthorizationDenied{Code: "approval_not_granted", Reason: "approval is " + approval.Status}
			}
			return approval, nil
		}, core.IdentityCheck())
}

func getAccount() core.Descriptor {
	return core.NewTool("get_account",
		"Return an account with its balance.",
		func(tx domain.Tx, in accountRef) (any, error) {
			return accounts.Get(tx, in.AccountID.String())
		}, core.ReadOnly())
}

func transferFunds() core.Descriptor {
	return core.NewTool("transfer_funds",
		"Move money between two accounts under an approved transfer approval.",
		func(tx domain.Tx, in transferInput) (any, error) {
			amount := roundCents(in.Amount)
			if err := authorize(tx, in.ApprovalCode, "transfer_funds", amount); err != nil {
				return nil, err
			}
			if in.FromAccountID == in.ToAccountID {
				return nil, domain.ErrInvalidArgument{Field: "to_account_id", Reason: "must differ from from_account_id"}
			}
			from, err := activeAccount(tx, in.FromAccountID)
			if err != nil {
				return nil, err
			}
			to, err := activeAccount(tx, in.ToAccountID)
			if err != nil {
				return nil, err
			}
			if from.Balance < amount {
				return nil, domain.ErrInvalidArgument{Field: "amount", Reason: "insufficient funds"}
			}
			now := tx.Now()
			from.Balance = roundCents(from.Balance - amount)
			to.Balance = roundCents(to.Balance + amount)
			from.UpdatedAt, to.UpdatedAt = now, now
			if err := accounts.Put(tx, from.AccountID.String(), from); err != nil {
				return nil, err
			}
			if err := accounts.Put(tx, to.AccountID.String(), to); err != nil {
				return nil, err
			}
			return Transfer{FromAccountID: from.AccountID, ToAccountID: to.AccountID, Amount: amount, FromBalance: from.Balance, ToBalance: to.Balance}, nil
		}, core.WithMinimum("amount", 0.01))
}

// authorize checks that code is an approved grant for action covering amount.
func authorize(tx domain.Tx, code domain.ID, action string, amount float64) error {
	approval, ok := approvals.Find(tx, code.String())
	switch {
	case !ok:
		return domain.ErrAuthorizationDenied{Code: "approval_missing", Reason: "no approval " + code.String()}
	case approval.Status != "approved":
		return domain.ErrAuthorizationDenied{Code: "approval_not_granted", Reason: "approval is " + approval.Status}
	case approval.Action != action:
		return domain.ErrAuthorizationDenied{Code: "approval_scope", Reason: "approval covers " + approval.Action}
	case approval.AmountLimit > 0 && amount > approval.AmountLimit:
		return domain.ErrAuthorizationDenied{Code: "approval_limit", Reason: "amount exceeds the approved limit"}
	}
	return nil
}

func activeAccount(tx domain.Tx, id domain.ID) (Account, error) {
	acct, err := accounts.Get(tx, id.String())
	if err != nil {
		return Account{}, err
	}
	if acct.Status != "" && acct.Status != "active" {
		return Account{}, domain.ErrInvalidState{Entity: "account", ID: acct.AccountID.String(), From: acct.Status}
	}
	return acct, nil
}

func issueVirtualCard() core.Descriptor {
	return core.NewTool("issue_virtual_card",
		"Issue an active virtual card on an account.",
		func(tx domain.Tx, in issueCardInput) (any, error) {
			acct, err := activeAccount(tx, in.AccountID)
			if err != nil {
				return nil, err
			}
			id, err := cards.Mint(tx)
			if err != nil {
				return nil, err
			}
			now := tx.Now()
			card := VirtualCard{
				CardID:        domain.ID(id),
				AccountID:     acct.AccountID,
				CustomerID:    acct.CustomerID,
				SpendingLimit: roundCents(in.SpendingLimit),
				Status:        CardActive,
				IssuedAt:      now,
				UpdatedAt:     now,
			}
			if err := cards.Insert(tx, id, card); err != nil {
				return nil, err
			}
			return card, nil
		}, core.WithMinimum("spending_limit", 1))
}

func setCardStatus(name, description, to string) core.Descriptor {
	return core.NewTool(name, description, func(tx domain.Tx, in cardRef) (any, error) {
		card, err := cards.Get(tx, in.CardID.String())
		if err != nil {
			return nil, err
		}
		if err := cardLifecycle.Transition(card.CardID.String(), card.Status, to); err != nil {
			return nil, err
		}
		card.Status = to
		card.UpdatedAt = tx.Now()
		if err := cards.Put(tx, card.CardID.String(), card); err != nil {
			return nil, err
		}
		return card, nil
	})
}

// numericLess orders numeric ids by value and falls back to string order.
func numericLess(a, b domain.ID) bool {
	x, errA := strconv.Atoi(a.String())
	y, errB := strconv.Atoi(b.String())
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}
