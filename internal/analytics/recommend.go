package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Priority tags a recommendation by urgency. Recommendations are emitted
// in fixed rule order, not sorted by priority.
type Priority string

const (
	PriorityCritical    Priority = "CRITICAL"
	PriorityAttention   Priority = "ATTENTION"
	PriorityPositive    Priority = "POSITIVE"
	PriorityOpportunity Priority = "OPPORTUNITY"
	PriorityGoal        Priority = "GOAL"
)

// Recommendation is one rule-triggered advisory.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Title    string   `json:"title"`
	Action   string   `json:"action"`
}

var (
	lowSavingsRate   = decimal.RequireFromString("0.10")
	goodSavingsRate  = decimal.RequireFromString("0.20")
	dominantShare    = decimal.RequireFromString("0.35")
	suggestedCut     = decimal.RequireFromString("0.15")
	savingsTarget    = decimal.RequireFromString("0.20")
	spendingCeilRate = decimal.RequireFromString("0.80")
)

// Recommend applies the advisory rules to one period aggregate. The
// rules fire independently; none suppresses another. An empty result
// means the finances are balanced and callers render it as such.
func Recommend(agg PeriodAggregate) []Recommendation {
	var recs []Recommendation

	// Rule 1: savings rate. The [10%, 20%) band intentionally fires
	// nothing.
	if agg.Income.IsPositive() {
		rate := agg.Balance.Div(agg.Income)
		switch {
		case rate.IsNegative():
			recs = append(recs, Recommendation{
				Priority: PriorityCritical,
				Title:    "You are spending more than you earn",
				Action:   fmt.Sprintf("Cut %s from expenses immediately", money(agg.Balance.Abs())),
			})
		case rate.LessThan(lowSavingsRate):
			recs = append(recs, Recommendation{
				Priority: PriorityAttention,
				Title:    fmt.Sprintf("Low savings rate (%s%%)", percent(rate)),
				Action:   fmt.Sprintf("Target saving 20%% of income (%s)", money(agg.Income.Mul(savingsTarget))),
			})
		case rate.GreaterThanOrEqual(goodSavingsRate):
			recs = append(recs, Recommendation{
				Priority: PriorityPositive,
				Title:    fmt.Sprintf("Excellent savings rate (%s%%)", percent(rate)),
				Action:   fmt.Sprintf("Consider investing the %s surplus", money(agg.Balance)),
			})
		}
	}

	// Rule 2: dominant category, strictly above 35% of total expense.
	if agg.Expense.IsPositive() && len(agg.Categories) > 0 {
		top := agg.Categories[0]
		share := top.Amount.Div(agg.Expense)
		if share.GreaterThan(dominantShare) {
			recs = append(recs, Recommendation{
				Priority: PriorityOpportunity,
				Title:    fmt.Sprintf("%s accounts for %s%% of expenses", top.Category, percent(share)),
				Action:   fmt.Sprintf("Reducing it by 15%% saves %s per month", money(top.Amount.Mul(suggestedCut))),
			})
		}
	}

	// Rule 3: spending ceiling at 80% of income.
	if agg.Income.IsPositive() {
		ceiling := agg.Income.Mul(spendingCeilRate)
		if agg.Expense.GreaterThan(ceiling) {
			recs = append(recs, Recommendation{
				Priority: PriorityGoal,
				Title:    "Set a spending ceiling",
				Action:   fmt.Sprintf("Ideal maximum is %s, current expenses are %s", money(ceiling), money(agg.Expense)),
			})
		}
	}

	return recs
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(1)
}
