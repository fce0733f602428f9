package fundfinance

import (
	"testing"

	"toolcore/internal/infra/persistence/memory"
	"toolcore/pkg/domain"
	"toolcore/plugins/testhelper"
)

func book() memory.Snapshot {
	return testhelper.NewSeed().
		Add(colInvestors, "INV0001", domain.Record{"investor_id": "INV0001", "name": "Halden Trust", "accredited": true, "status": "active"}).
		Add(colInvestors, "INV0002", domain.Record{"investor_id": "INV0002", "name": "Pia Lund", "accredited": false, "status": "active"}).
		Add(colFunds, "FND001", domain.Record{"fund_id": "FND001", "name": "Global Equity", "nav": 12.5, "min_investment": 100.0, "status": "open"}).
		Add(colFunds, "FND002", domain.Record{"fund_id": "FND002", "name": "Legacy Bond", "nav": 9.0, "min_investment": 0.0, "status": "closed"}).
		Add(colPortfolios, "PF0001", domain.Record{
			"portfolio_id": "PF0001", "investor_id": "INV0001", "cash_balance": 1000.0,
			"holdings": []any{map[string]any{"fund_id": "FND002", "units": 10.0}},
		}).
		Add(colPortfolios, "PF0002", domain.Record{"portfolio_id": "PF0002", "investor_id": "INV0002", "cash_balance": 50.0, "holdings": []any{}}).
		Snapshot()
}

func create(amount float64) map[string]any {
	return map[string]any{"action": "create", "investor_id": "INV0001", "fund_id": "FND001", "portfolio_id": "PF0001", "amount": amount}
}

func TestSubscriptionIsAtomic(t *testing.T) {
	s := testhelper.New(t, New()).Session(InvestorInterface, book())

	body := s.Fail("handle_subscription", create(5000), domain.KindInvalidState)
	if body.Details["rule"] != portfolioCashRuleName {
		t.Fatalf("expected the cash rule to block, got %v", body.Details)
	}
	if s.Exists(colSubscriptions, "SUB0001") {
		t.Fatalf("subscription persisted after the debit failed")
	}
	if cash := s.Record(colPortfolios, "PF0001")["cash_balance"]; cash != 1000.0 {
		t.Fatalf("portfolio debited after rollback: %v", cash)
	}

	sub := s.Object("handle_subscription", create(250))
	if sub["subscription_id"] != "SUB0001" || sub["units"] != 20.0 || sub["status"] != SubscriptionActive {
		t.Fatalf("unexpected subscription: %v", sub)
	}
	pf := s.Object("get_portfolio", map[string]any{"portfolio_id": "PF0001"})
	if pf["cash_balance"] != 750.0 {
		t.Fatalf("expected cash 750, got %v", pf["cash_balance"])
	}
	holdings, _ := pf["holdings"].([]any)
	if len(holdings) != 2 {
		t.Fatalf("expected a new holding, got %v", holdings)
	}
}

func TestSubscriptionValidation(t *testing.T) {
	s := testhelper.New(t, New()).Session(InvestorInterface, book())
	cases := []struct {
		name string
		args map[string]any
		kind domain.ErrorKind
	}{
		{"unknown action", map[string]any{"action": "transfer"}, domain.KindInvalidArgument},
		{"missing fund", map[string]any{"action": "create", "investor_id": "INV0001", "portfolio_id": "PF0001", "amount": 100}, domain.KindInvalidArgument},
		{"below minimum", create(50), domain.KindInvalidArgument},
		{"closed fund", map[string]any{"action": "create", "investor_id": "INV0001", "fund_id": "FND002", "portfolio_id": "PF0001", "amount": 100}, domain.KindInvalidState},
		{"foreign portfolio", map[string]any{"action": "create", "investor_id": "INV0001", "fund_id": "FND001", "portfolio_id": "PF0002", "amount": 100}, domain.KindInvalidArgument},
		{"unknown investor", map[string]any{"action": "create", "investor_id": "INV0404", "fund_id": "FND001", "portfolio_id": "PF0001", "amount": 100}, domain.KindNotFound},
		{"cancel without id", map[string]any{"action": "cancel"}, domain.KindInvalidArgument},
		{"cancel unknown", map[string]any{"action": "cancel", "subscription_id": "SUB0404"}, domain.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := s.Fail("handle_subscription", tc.args, tc.kind)
			if tc.name == "missing fund" && body.Details["field"] != "fund_id" {
				t.Fatalf("expected fund_id to be reported, got %v", body.Details)
			}
		})
	}
}

func TestCancelSubscriptionRefunds(t *testing.T) {
	s := testhelper.New(t, New()).Session(InvestorInterface, book())
	sub := s.Object("handle_subscription", create(500))

	cancelled := s.Object("handle_subscription", map[string]any{"action": "cancel", "subscription_id": sub["subscription_id"]})
	if cancelled["status"] != SubscriptionCancelled {
		t.Fatalf("unexpected cancellation: %v", cancelled)
	}
	value := s.Object("calculate_portfolio_value", map[string]any{"portfolio_id": "PF0001"})
	if value["cash_balance"] != 1000.0 || value["holdings_value"] != 90.0 || value["total_value"] != 1090.0 {
		t.Fatalf("unexpected valuation: %v", value)
	}
	s.Fail("handle_subscription", map[string]any{"action": "cancel", "subscription_id": sub["subscription_id"]}, domain.KindInvalidState)

	active := s.List("list_investor_subscriptions", map[string]any{"investor_id": "INV0001", "status": SubscriptionActive})
	if len(active) != 0 {
		t.Fatalf("expected no active subscriptions, got %v", active)
	}
	all := s.List("list_investor_subscriptions", map[string]any{"investor_id": "INV0001"})
	if len(all) != 1 {
		t.Fatalf("expected one subscription, got %v", all)
	}
}

func TestPortfolioValuation(t *testing.T) {
	s := testhelper.New(t, New()).Session(InvestorInterface, book())
	s.OK("handle_subscription", create(125))
	value := s.Object("calculate_portfolio_value", map[string]any{"portfolio_id": "PF0001"})
	positions, _ := value["positions"].([]any)
	if len(positions) != 2 {
		t.Fatalf("expected two positions, got %v", positions)
	}
	if value["holdings_value"] != 215.0 || value["total_value"] != 1090.0 {
		t.Fatalf("unexpected valuation: %v", value)
	}
	empty := s.Object("calculate_portfolio_value", map[string]any{"portfolio_id": "PF0002"})
	if empty["total_value"] != 50.0 {
		t.Fatalf("unexpected cash-only valuation: %v", empty)
	}
	s.Fail("get_investor", map[string]any{"investor_id": "INV0404"}, domain.KindNotFound)
}
