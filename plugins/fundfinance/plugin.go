// Package fundfinance provides the fund administration domain: investors
// subscribe portfolio cash into funds and track what their holdings are worth.
package fundfinance

import (
	"context"
	"fmt"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

// Domain is the plugin and dataset name.
const Domain = "fund_finance"

// InvestorInterface is the investor-facing tool surface.
const InvestorInterface = "interface_1"

const pluginVersion = "0.2.3"

// Plugin implements the fund_finance domain.
type Plugin struct{}

// New constructs a fund_finance plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return Domain }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return pluginVersion }

// Register declares collections, the subscription lifecycle, the cash rule and
// the investor tools.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterCollection(
		domain.CollectionSpec{Name: colInvestors, IDPolicy: domain.IDPolicy{Prefix: "INV", Width: 4}},
		domain.CollectionSpec{Name: colFunds, IDPolicy: domain.IDPolicy{Prefix: "FND", Width: 3}},
		domain.CollectionSpec{Name: colPortfolios, IDPolicy: domain.IDPolicy{Prefix: "PF", Width: 4}},
		domain.CollectionSpec{Name: colSubscriptions, IDPolicy: domain.IDPolicy{Prefix: "SUB", Width: 4}},
	)
	registry.RegisterStateMachine(subscriptionLifecycle)
	registry.RegisterRule(portfolioCashRule{})

	registry.RegisterTools(InvestorInterface,
		getInvestor(),
		getFund(),
		getPortfolio(),
		handleSubscription(),
		listInvestorSubscriptions(),
		calculatePortfolioValue(),
	)
	return nil
}

const portfolioCashRuleName = "fund_portfolio_cash"

// portfolioCashRule blocks commits that leave a portfolio with negative cash or
// a negative holding.
type portfolioCashRule struct{}

func (portfolioCashRule) Name() string { return portfolioCashRuleName }

func (portfolioCashRule) Evaluate(_ context.Context, _ core.View, changes []core.Change) (core.Result, error) {
	var result core.Result
	for _, change := range changes {
		if change.Collection != colPortfolios || change.After == nil {
			continue
		}
		if cash, ok := change.After["cash_balance"].(float64); ok && cash < 0 {
			result.Violations = append(result.Violations, core.Violation{
				Rule:       portfolioCashRuleName,
				Severity:   core.SeverityBlock,
				Message:    fmt.Sprintf("portfolio %s cash balance would be %.2f", change.ID, cash),
				Collection: colPortfolios,
				EntityID:   change.ID,
			})
			continue
		}
		holdings, _ := change.After["holdings"].([]any)
		for _, h := range holdings {
			entry, _ := h.(map[string]any)
			if units, ok := entry["units"].(float64); ok && units < 0 {
				result.Violations = append(result.Violations, core.Violation{
					Rule:       portfolioCashRuleName,
					Severity:   core.SeverityBlock,
					Message:    fmt.Sprintf("portfolio %s would hold negative units of %v", change.ID, entry["fund_id"]),
					Collection: colPortfolios,
					EntityID:   change.ID,
				})
				break
			}
		}
	}
	return result, nil
}
