package analytics

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func period(income, expense float64) PeriodAggregate {
	in := decimal.NewFromFloat(income)
	ex := decimal.NewFromFloat(expense)
	return PeriodAggregate{Income: in, Expense: ex, Balance: in.Sub(ex), Entries: 1}
}

func TestProjectTrailingMean(t *testing.T) {
	history := []PeriodAggregate{
		period(2000, 1000),
		period(2000, 1200),
	}

	p, err := Project(history)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if !p.Income.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("income = %s, want 2000", p.Income)
	}
	if !p.Expense.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("expense = %s, want 1100", p.Expense)
	}
	if !p.Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("balance = %s, want 900", p.Balance)
	}
	if p.Months != 2 {
		t.Errorf("months = %d, want 2", p.Months)
	}
	if !p.IncomeDeviation.IsZero() {
		t.Errorf("income deviation = %s, want 0", p.IncomeDeviation)
	}
	// Sample stddev of {1000, 1200} with divisor n-1.
	if !p.ExpenseDeviation.Equal(decimal.NewFromFloat(141.42)) {
		t.Errorf("expense deviation = %s, want 141.42", p.ExpenseDeviation)
	}
}

func TestProjectInsufficientHistory(t *testing.T) {
	for _, history := range [][]PeriodAggregate{nil, {period(100, 50)}} {
		if _, err := Project(history); !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("Project(%d months): err = %v, want ErrInsufficientHistory", len(history), err)
		}
	}
}

func TestProjectBalanceIdentity(t *testing.T) {
	history := []PeriodAggregate{
		period(3210.55, 987.12),
		period(2999.99, 1500),
		period(3100, 1234.56),
	}

	p, err := Project(history)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if !p.Balance.Equal(p.Income.Sub(p.Expense)) {
		t.Errorf("balance %s != income %s - expense %s", p.Balance, p.Income, p.Expense)
	}
}
