package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/shopspring/decimal"
)

// BudgetChecker compares spending against the owner's active budgets.
type BudgetChecker struct {
	txns            service.TransactionReader
	budgets         service.BudgetReader
	preventiveRatio decimal.Decimal
}

// NewBudgetChecker creates a budget checker. preventiveRatio is the share of
// a limit at which a preventive warning is raised; zero disables warnings.
func NewBudgetChecker(txns service.TransactionReader, budgets service.BudgetReader, preventiveRatio decimal.Decimal) *BudgetChecker {
	return &BudgetChecker{txns: txns, budgets: budgets, preventiveRatio: preventiveRatio}
}

// Name implements Detector.
func (c *BudgetChecker) Name() string { return "budget" }

// Detect implements Detector. It reports the first breached budget. When no
// budget is breached it may report the first budget past the preventive ratio.
// Spend includes the candidate amount on top of the stored sum.
func (c *BudgetChecker) Detect(ctx context.Context, txn model.Transaction, now time.Time) (*Finding, error) {
	budgets, err := c.budgets.FindActiveBudgets(ctx, txn.OwnerID, string(txn.Category), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	var warning *Finding
	for _, b := range budgets {
		if !b.Active || !b.Covers(now) || !b.AppliesTo(txn.Category) {
			continue
		}

		var category *model.Category
		if !b.IsAllCategories() {
			category = ptr(txn.Category)
		}
		spent, err := c.txns.SumByCategory(ctx, txn.OwnerID, category, b.StartDate, b.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to sum spend for budget %s: %w", b.ID, err)
		}
		current := spent.Add(txn.Amount)

		if current.GreaterThan(b.Limit) {
			exceededBy := current.Sub(b.Limit)
			return &Finding{
				Type:     model.AnomalyBudgetExceed,
				Severity: model.SeverityHigh,
				Explanation: fmt.Sprintf("%s budget of %s exceeded by %s",
					budgetLabel(b), b.Limit.StringFixed(2), exceededBy.StringFixed(2)),
				Evidence: model.BudgetEvidence{
					BudgetID:     b.ID,
					BudgetLimit:  money(b.Limit),
					CurrentSpend: money(current),
					ExceededBy:   money(exceededBy),
				},
			}, nil
		}

		if warning == nil && c.preventiveRatio.IsPositive() && b.Limit.IsPositive() &&
			current.GreaterThanOrEqual(b.Limit.Mul(c.preventiveRatio)) {
			used := current.Div(b.Limit).Mul(decimal.NewFromInt(100))
			warning = &Finding{
				Type:     model.AnomalyPreventive,
				Severity: model.SeverityLow,
				Explanation: fmt.Sprintf("%s budget is %s%% used (%s of %s)",
					budgetLabel(b), used.StringFixed(0), current.StringFixed(2), b.Limit.StringFixed(2)),
				Evidence: model.PreventiveEvidence{
					BudgetID:     b.ID,
					BudgetLimit:  money(b.Limit),
					CurrentSpend: money(current),
					UsedPercent:  money(used),
				},
			}
		}
	}

	return warning, nil
}

func budgetLabel(b model.Budget) string {
	if b.IsAllCategories() {
		return "Overall"
	}
	return b.Category
}
