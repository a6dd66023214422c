package analytics

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func aggFor(income, expense float64, categories ...CategoryTotal) PeriodAggregate {
	in := decimal.NewFromFloat(income)
	ex := decimal.NewFromFloat(expense)
	return PeriodAggregate{
		Income:     in,
		Expense:    ex,
		Balance:    in.Sub(ex),
		Categories: categories,
		Entries:    1,
	}
}

func hasPriority(recs []Recommendation, p Priority) bool {
	for _, r := range recs {
		if r.Priority == p {
			return true
		}
	}
	return false
}

func TestRecommendHealthyMonth(t *testing.T) {
	// 3000 income, 1600 expense: 46.7% savings rate and Rent at 75% of
	// spending should fire POSITIVE and OPPORTUNITY, nothing else.
	agg := aggFor(3000, 1600,
		CategoryTotal{Category: "Rent", Amount: decimal.NewFromInt(1200)},
		CategoryTotal{Category: "Food", Amount: decimal.NewFromInt(400)},
	)

	recs := Recommend(agg)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2: %+v", len(recs), recs)
	}
	if recs[0].Priority != PriorityPositive {
		t.Errorf("first priority = %s, want POSITIVE", recs[0].Priority)
	}
	if recs[1].Priority != PriorityOpportunity {
		t.Errorf("second priority = %s, want OPPORTUNITY", recs[1].Priority)
	}
	if !strings.Contains(recs[1].Action, "180.00") {
		t.Errorf("opportunity action = %q, want 15%% of 1200 = 180.00", recs[1].Action)
	}
}

func TestRecommendDeficit(t *testing.T) {
	recs := Recommend(aggFor(1000, 1500))
	if !hasPriority(recs, PriorityCritical) {
		t.Fatalf("expected CRITICAL, got %+v", recs)
	}
	for _, r := range recs {
		if r.Priority == PriorityCritical && !strings.Contains(r.Action, "500.00") {
			t.Errorf("critical action = %q, want deficit 500.00", r.Action)
		}
	}
}

func TestRecommendLowSavingsRate(t *testing.T) {
	// 5% savings rate.
	recs := Recommend(aggFor(1000, 950))
	if !hasPriority(recs, PriorityAttention) {
		t.Errorf("expected ATTENTION, got %+v", recs)
	}
}

func TestRecommendSavingsRateGap(t *testing.T) {
	// 15% savings rate: between the low and good thresholds no savings
	// rule fires.
	recs := Recommend(aggFor(1000, 850,
		CategoryTotal{Category: "Food", Amount: decimal.NewFromInt(200)},
	))
	for _, p := range []Priority{PriorityCritical, PriorityAttention, PriorityPositive} {
		if hasPriority(recs, p) {
			t.Errorf("unexpected %s in gap band: %+v", p, recs)
		}
	}
}

func TestRecommendDominantCategoryBoundary(t *testing.T) {
	// Exactly 35% must not fire; strictly above must.
	exact := aggFor(10000, 1000, CategoryTotal{Category: "Food", Amount: decimal.NewFromInt(350)})
	if recs := Recommend(exact); hasPriority(recs, PriorityOpportunity) {
		t.Errorf("exactly 35%% fired OPPORTUNITY: %+v", recs)
	}

	above := aggFor(10000, 1000, CategoryTotal{Category: "Food", Amount: decimal.NewFromInt(351)})
	if recs := Recommend(above); !hasPriority(recs, PriorityOpportunity) {
		t.Errorf("35.1%% did not fire OPPORTUNITY: %+v", recs)
	}
}

func TestRecommendSpendingCeiling(t *testing.T) {
	// 85% of income spent: GOAL fires alongside the ATTENTION savings
	// advisory.
	recs := Recommend(aggFor(1000, 850))
	if !hasPriority(recs, PriorityGoal) {
		t.Fatalf("expected GOAL, got %+v", recs)
	}
	for _, r := range recs {
		if r.Priority == PriorityGoal {
			if !strings.Contains(r.Action, "800.00") || !strings.Contains(r.Action, "850.00") {
				t.Errorf("goal action = %q, want ceiling 800.00 and current 850.00", r.Action)
			}
		}
	}
}

func TestRecommendEmptyAggregate(t *testing.T) {
	if recs := Recommend(PeriodAggregate{}); len(recs) != 0 {
		t.Errorf("expected no recommendations for empty aggregate, got %+v", recs)
	}
}
