// Package analytics implements the derived views over the ledger:
// period aggregation, next-month projection, rule-based recommendations,
// and budget-versus-actual tracking. Every function here is pure; state
// lives in the arguments and the returned structures.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type (
	// CategoryTotal is one row of the per-category expense breakdown.
	CategoryTotal struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// PeriodAggregate holds the computed totals for one (year, month)
	// bucket. A month with no entries is a valid zero aggregate; callers
	// that need to tell "no data" from "zero activity" check Entries.
	PeriodAggregate struct {
		Year       int             `json:"year"`
		Month      int             `json:"month"`
		Income     decimal.Decimal `json:"income"`
		Expense    decimal.Decimal `json:"expense"`
		Balance    decimal.Decimal `json:"balance"`
		Categories []CategoryTotal `json:"categories"`
		Entries    int             `json:"entries"`
	}
)

// FilterPeriod returns the transactions whose date falls in the given
// (year, month) bucket, preserving input order.
func FilterPeriod(txs []core.Transaction, year, month int) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Date.In(year, month) {
			out = append(out, tx)
		}
	}
	return out
}

// Aggregate computes the period totals for one (year, month) bucket over
// the given transaction set. Zero year or month defaults to the current
// calendar month. Expenses are additionally grouped by category, ordered
// by descending summed amount with ties kept in first-encountered order.
func Aggregate(txs []core.Transaction, year, month int) PeriodAggregate {
	if year == 0 || month == 0 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}

	agg := PeriodAggregate{Year: year, Month: month}
	index := make(map[string]int)

	for _, tx := range txs {
		if !tx.Date.In(year, month) {
			continue
		}
		agg.Entries++
		switch tx.Kind {
		case core.KindIncome:
			agg.Income = agg.Income.Add(tx.Amount)
		case core.KindExpense:
			agg.Expense = agg.Expense.Add(tx.Amount)
			if i, ok := index[tx.Category]; ok {
				agg.Categories[i].Amount = agg.Categories[i].Amount.Add(tx.Amount)
			} else {
				index[tx.Category] = len(agg.Categories)
				agg.Categories = append(agg.Categories, CategoryTotal{Category: tx.Category, Amount: tx.Amount})
			}
		}
	}

	agg.Balance = agg.Income.Sub(agg.Expense)
	// Stable sort keeps first-encountered order for equal amounts.
	sort.SliceStable(agg.Categories, func(i, j int) bool {
		return agg.Categories[i].Amount.GreaterThan(agg.Categories[j].Amount)
	})
	return agg
}
