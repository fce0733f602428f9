package fundfinance

import (
	"math"

	"toolcore/pkg/domain"
)

const (
	colInvestors     domain.Collection = "investors"
	colFunds         domain.Collection = "funds"
	colPortfolios    domain.Collection = "portfolios"
	colSubscriptions domain.Collection = "subscriptions"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Investor is a fund client.
type Investor struct {
	InvestorID domain.ID `json:"investor_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Accredited bool      `json:"accredited"`
	Status     string    `json:"status,omitempty"`
}

// Fund is an investable fund priced by its net asset value per unit.
type Fund struct {
	FundID        domain.ID `json:"fund_id"`
	Name          string    `json:"name"`
	NAV           float64   `json:"nav"`
	MinInvestment float64   `json:"min_investment"`
	Status        string    `json:"status"`
}

// Holding is a position in one fund.
type Holding struct {
	FundID domain.ID `json:"fund_id"`
	Units  float64   `json:"units"`
}

// Portfolio is an investor's cash and fund holdings.
type Portfolio struct {
	PortfolioID domain.ID `json:"portfolio_id"`
	InvestorID  domain.ID `json:"investor_id"`
	CashBalance float64   `json:"cash_balance"`
	Holdings    []Holding `json:"holdings"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}

// Subscription is an investment of cash into a fund.
type Subscription struct {
	SubscriptionID domain.ID `json:"subscription_id"`
	InvestorID     domain.ID `json:"investor_id"`
	FundID         domain.ID `json:"fund_id"`
	PortfolioID    domain.ID `json:"portfolio_id"`
	Amount         float64   `json:"amount"`
	Units          float64   `json:"units"`
	Status         string    `json:"status"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

var (
	investors     = domain.NewTable[Investor](colInvestors, "investor")
	funds         = domain.NewTable[Fund](colFunds, "fund")
	portfolios    = domain.NewTable[Portfolio](colPortfolios, "portfolio")
	subscriptions = domain.NewTable[Subscription](colSubscriptions, "subscription")
)

var subscriptionLifecycle = domain.StateMachine{
	Collection: colSubscriptions,
	Entity:     "subscription",
	States:     []string{SubscriptionActive, SubscriptionCancelled},
	Terminal:   []string{SubscriptionCancelled},
	Order:      []string{SubscriptionActive, SubscriptionCancelled},
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundUnits keeps four decimal places of fund units.
func roundUnits(v float64) float64 {
	return math.Round(v*10000) / 10000
}
