package finance

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

const nonNegativeBalanceRuleName = "finance_non_negative_balance"

// nonNegativeBalanceRule blocks any commit that leaves an account overdrawn.
type nonNegativeBalanceRule struct{}

func (nonNegativeBalanceRule) Name() string { return nonNegativeBalanceRuleName }

func (nonNegativeBalanceRule) Evaluate(_ context.Context, _ core.View, changes []core.Change) (core.Result, error) {
	var result core.Result
	for _, change := range changes {
		if change.Collection != colAccounts || change.After == nil {
			continue
		}
		balance, ok := change.After["balance"].(float64)
		if !ok || balance >= 0 {
			continue
		}
		result.Violations = append(result.Violations, core.Violation{
			Rule:       nonNegativeBalanceRuleName,
			Severity:   core.SeverityBlock,
			Message:    fmt.Sprintf("account %s would be overdrawn (%.2f)", change.ID, balance),
			Collection: colAccounts,
			EntityID:   change.ID,
		})
	}
	return result, nil
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func checkDate(field, value string) error {
	if !datePattern.MatchString(value) {
		return domain.ErrInvalidArgument{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
