package fundfinance

import (
	"sort"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

type investorRef struct {
	InvestorID domain.ID `json:"investor_id" jsonschema:"investor id"`
}

type fundRef struct {
	FundID domain.ID `json:"fund_id" jsonschema:"fund id"`
}

type portfolioRef struct {
	PortfolioID domain.ID `json:"portfolio_id" jsonschema:"portfolio id"`
}

type subscriptionInput struct {
	Action         string    `json:"action" jsonschema:"create a new subscription or cancel an existing one"`
	InvestorID     domain.ID `json:"investor_id,omitempty" jsonschema:"subscribing investor (create)"`
	FundID         domain.ID `json:"fund_id,omitempty" jsonschema:"fund subscribed to (create)"`
	PortfolioID    domain.ID `json:"portfolio_id,omitempty" jsonschema:"portfolio whose cash pays for the subscription (create)"`
	Amount         float64   `json:"amount,omitempty" jsonschema:"cash amount to invest (create)"`
	SubscriptionID domain.ID `json:"subscription_id,omitempty" jsonschema:"subscription to cancel (cancel)"`
}

type listSubscriptionsInput struct {
	InvestorID domain.ID `json:"investor_id" jsonschema:"investor id"`
	Status     string    `json:"status,omitempty" jsonschema:"only subscriptions in this status"`
}

// Position values one holding at the fund's current NAV.
type Position struct {
	FundID domain.ID `json:"fund_id"`
	Units  float64   `json:"units"`
	NAV    float64   `json:"nav"`
	Value  float64   `json:"value"`
}

// Valuation is the marked-to-NAV value of a portfolio.
type Valuation struct {
	PortfolioID   domain.ID  `json:"portfolio_id"`
	CashBalance   float64    `json:"cash_balance"`
	HoldingsValue float64    `json:"holdings_value"`
	TotalValue    float64    `json:"total_value"`
	Positions     []Position `json:"positions"`
}

func getInvestor() core.Descriptor {
	return core.NewTool("get_investor",
		"Return an investor's profile. Call it first to verify the investor.",
		func(tx domain.Tx, in investorRef) (any, error) {
			return investors.Get(tx, in.InvestorID.String())
		}, core.IdentityCheck())
}

func getFund() core.Descriptor {
	return core.NewTool("get_fund",
		"Return a fund with its NAV, minimum investment and status.",
		func(tx domain.Tx, in fundRef) (any, error) {
			return funds.Get(tx, in.FundID.String())
		}, core.ReadOnly())
}

func getPortfolio() core.Descriptor {
	return core.NewTool("get_portfolio",
		"Return a portfolio with its cash balance and holdings.",
		func(tx domain.Tx, in portfolioRef) (any, error) {
			return portfolios.Get(tx, in.PortfolioID.String())
		}, core.ReadOnly())
}

func handleSubscription() core.Descriptor {
	return core.NewTool("handle_subscription",
		"Create a fund subscription paid from portfolio cash, or cancel one and refund it.",
		func(tx domain.Tx, in subscriptionInput) (any, error) {
			if in.Action == "cancel" {
				return cancelSubscription(tx, in)
			}
			return createSubscription(tx, in)
		}, core.WithEnum("action", "create", "cancel"), core.WithMinimum("amount", 0))
}

func createSubscription(tx domain.Tx, in subscriptionInput) (Subscription, error) {
	for _, req := range []struct {
		field string
		value domain.ID
	}{
		{"investor_id", in.InvestorID},
		{"fund_id", in.FundID},
		{"portfolio_id", in.PortfolioID},
	} {
		if req.value == "" {
			return Subscription{}, domain.ErrInvalidArgument{Field: req.field, Reason: "required to create a subscription"}
		}
	}
	if in.Amount <= 0 {
		return Subscription{}, domain.ErrInvalidArgument{Field: "amount", Reason: "must be positive"}
	}
	investor, err := investors.Get(tx, in.InvestorID.String())
	if err != nil {
		return Subscription{}, err
	}
	fund, err := funds.Get(tx, in.FundID.String())
	if err != nil {
		return Subscription{}, err
	}
	if fund.Status != "open" || fund.NAV <= 0 {
		return Subscription{}, domain.ErrInvalidState{Entity: "fund", ID: fund.FundID.String(), From: fund.Status}
	}
	amount := roundCents(in.Amount)
	if amount < fund.MinInvestment {
		return Subscription{}, domain.ErrInvalidArgument{Field: "amount", Reason: "below the fund minimum investment"}
	}
	portfolio, err := portfolios.Get(tx, in.PortfolioID.String())
	if err != nil {
		return Subscription{}, err
	}
	if portfolio.InvestorID != investor.InvestorID {
		return Subscription{}, domain.ErrInvalidArgument{Field: "portfolio_id", Reason: "portfolio belongs to another investor"}
	}

	id, err := subscriptions.Mint(tx)
	if err != nil {
		return Subscription{}, err
	}
	now := tx.Now()
	sub := Subscription{
		SubscriptionID: domain.ID(id),
		InvestorID:     investor.InvestorID,
		FundID:         fund.FundID,
		PortfolioID:    portfolio.PortfolioID,
		Amount:         amount,
		Units:          roundUnits(amount / fund.NAV),
		Status:         SubscriptionActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := subscriptions.Insert(tx, id, sub); err != nil {
		return Subscription{}, err
	}
	// Cash sufficiency is enforced at commit by portfolioCashRule.
	if err := settle(tx, portfolio, fund.FundID, -amount, sub.Units); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func cancelSubscription(tx domain.Tx, in subscriptionInput) (Subscription, error) {
	if in.SubscriptionID == "" {
		return Subscription{}, domain.ErrInvalidArgument{Field: "subscription_id", Reason: "required to cancel a subscription"}
	}
	sub, err := subscriptions.Get(tx, in.SubscriptionID.String())
	if err != nil {
		return Subscription{}, err
	}
	if err := subscriptionLifecycle.Transition(sub.SubscriptionID.String(), sub.Status, SubscriptionCancelled); err != nil {
		return Subscription{}, err
	}
	sub.Status = SubscriptionCancelled
	sub.UpdatedAt = tx.Now()
	if err := subscriptions.Put(tx, sub.SubscriptionID.String(), sub); err != nil {
		return Subscription{}, err
	}
	portfolio, err := portfolios.Get(tx, sub.PortfolioID.String())
	if err != nil {
		return Subscription{}, err
	}
	if err := settle(tx, portfolio, sub.FundID, sub.Amount, -sub.Units); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// settle applies a cash movement and a unit movement in one fund to portfolio.
func settle(tx domain.Tx, portfolio Portfolio, fundID domain.ID, cash, units float64) error {
	portfolio.CashBalance = roundCents(portfolio.CashBalance + cash)
	found := false
	for i := range portfolio.Holdings {
		if portfolio.Holdings[i].FundID == fundID {
			portfolio.Holdings[i].Units = roundUnits(portfolio.Holdings[i].Units + units)
			found = true
			break
		}
	}
	if !found {
		portfolio.Holdings = append(portfolio.Holdings, Holding{FundID: fundID, Units: roundUnits(units)})
	}
	portfolio.UpdatedAt = tx.Now()
	return portfolios.Put(tx, portfolio.PortfolioID.String(), portfolio)
}

func listInvestorSubscriptions() core.Descriptor {
	return core.NewTool("list_investor_subscriptions",
		"List an investor's subscriptions ordered by subscription id.",
		func(tx domain.Tx, in listSubscriptionsInput) (any, error) {
			if !investors.Exists(tx, in.InvestorID.String()) {
				return nil, domain.ErrNotFound{Entity: "investor", ID: in.InvestorID.String()}
			}
			out, err := subscriptions.Filter(tx, func(s Subscription) bool {
				return s.InvestorID == in.InvestorID && (in.Status == "" || s.Status == in.Status)
			})
			if err != nil {
				return nil, err
			}
			sort.Slice(out, func(i, j int) bool { return out[i].SubscriptionID < out[j].SubscriptionID })
			return out, nil
		}, core.ReadOnly(), core.WithEnum("status", subscriptionLifecycle.States...))
}

func calculatePortfolioValue() core.Descriptor {
	return core.NewTool("calculate_portfolio_value",
		"Value a portfolio: cash plus every holding at its fund's current NAV.",
		func(tx domain.Tx, in portfolioRef) (any, error) {
			portfolio, err := portfolios.Get(tx, in.PortfolioID.String())
			if err != nil {
				return nil, err
			}
			v := Valuation{PortfolioID: portfolio.PortfolioID, CashBalance: portfolio.CashBalance, Positions: []Position{}}
			for _, h := range portfolio.Holdings {
				fund, err := funds.Get(tx, h.FundID.String())
				if err != nil {
					return nil, err
				}
				value := roundCents(h.Units * fund.NAV)
				v.Positions = append(v.Positions, Position{FundID: h.FundID, Units: h.Units, NAV: fund.NAV, Value: value})
				v.HoldingsValue += value
			}
			v.HoldingsValue = roundCents(v.HoldingsValue)
			v.TotalValue = roundCents(v.CashBalance + v.HoldingsValue)
			return v, nil
		}, core.ReadOnly())
}
