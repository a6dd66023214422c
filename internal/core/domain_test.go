package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:     KindExpense,
		Amount:   decimal.NewFromInt(100),
		Category: "Food",
		Date:     NewDate(2024, 1, 5),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: "transfer", Amount: decimal.NewFromInt(1), Category: "c", Date: NewDate(2024, 1, 1)},
		{Kind: KindIncome, Amount: decimal.NewFromInt(-1), Category: "c", Date: NewDate(2024, 1, 1)},
		{Kind: KindIncome, Amount: decimal.NewFromInt(1), Category: "", Date: NewDate(2024, 1, 1)},
		{Kind: KindIncome, Amount: decimal.NewFromInt(1), Category: "c", Date: Date{}},
		{Kind: KindIncome, Amount: decimal.NewFromInt(1), Category: "c", Date: NewDate(2024, 1, 1), Description: strings.Repeat("x", 201)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Category: "Food", Limit: decimal.NewFromInt(500)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Budget{Category: "Food", Limit: decimal.Zero}).Validate(); err == nil {
		t.Fatal("expected error for zero limit")
	}
	if err := (Budget{Category: "", Limit: decimal.NewFromInt(1)}).Validate(); err == nil {
		t.Fatal("expected error for empty category")
	}
}
