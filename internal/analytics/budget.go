package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// BudgetStatus compares one budget limit against the actual spend of a
// period. Utilization is a percentage of the limit.
type BudgetStatus struct {
	Category    string          `json:"category"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Utilization decimal.Decimal `json:"utilization"`
	Over        bool            `json:"over"`
}

// CompareBudgets produces one status row per budget, in budget order.
// Category matching against the aggregate is exact and case-sensitive.
func CompareBudgets(agg PeriodAggregate, budgets []core.Budget) []BudgetStatus {
	spent := make(map[string]decimal.Decimal, len(agg.Categories))
	for _, ct := range agg.Categories {
		spent[ct.Category] = ct.Amount
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s := BudgetStatus{
			Category: b.Category,
			Limit:    b.Limit,
			Spent:    spent[b.Category],
		}
		s.Remaining = b.Limit.Sub(s.Spent)
		if b.Limit.IsPositive() {
			s.Utilization = s.Spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).Round(1)
		}
		s.Over = s.Spent.GreaterThan(b.Limit)
		statuses = append(statuses, s)
	}
	return statuses
}
