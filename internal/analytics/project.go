package analytics

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInsufficientHistory signals fewer than two historical months of
// data. It is an informational state for the caller, not a failure.
var ErrInsufficientHistory = errors.New("insufficient history for projection")

// Projection is the trailing-mean estimate for the next month. The
// deviations are sample standard deviations (divisor N-1) of the
// historical income and expense series, rounded to cents.
type Projection struct {
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	Balance          decimal.Decimal `json:"balance"`
	IncomeDeviation  decimal.Decimal `json:"income_deviation"`
	ExpenseDeviation decimal.Decimal `json:"expense_deviation"`
	Months           int             `json:"months"`
}

// Project estimates next month's income, expense, and balance as the
// arithmetic mean of the historical monthly aggregates. At least two
// months are required; the balance is always mean income minus mean
// expense, never a separately derived figure.
func Project(history []PeriodAggregate) (Projection, error) {
	if len(history) < 2 {
		return Projection{}, ErrInsufficientHistory
	}

	incomes := make([]decimal.Decimal, len(history))
	expenses := make([]decimal.Decimal, len(history))
	for i, h := range history {
		incomes[i] = h.Income
		expenses[i] = h.Expense
	}

	p := Projection{
		Income:           mean(incomes),
		Expense:          mean(expenses),
		IncomeDeviation:  sampleStdDev(incomes),
		ExpenseDeviation: sampleStdDev(expenses),
		Months:           len(history),
	}
	p.Balance = p.Income.Sub(p.Expense)
	return p, nil
}

func mean(values []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}

// sampleStdDev returns zero for fewer than two samples rather than an
// undefined value.
func sampleStdDev(values []decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n < 2 {
		return decimal.Zero
	}
	m := mean(values).InexactFloat64()
	var sum float64
	for _, v := range values {
		diff := v.InexactFloat64() - m
		sum += diff * diff
	}
	return decimal.NewFromFloat(math.Sqrt(sum / float64(n-1))).Round(2)
}
