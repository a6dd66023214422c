package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out. The amount
	// itself is always a magnitude; the sign lives here.
	Kind string

	// Transaction is the atomic ledger record. ID and OwnerID are assigned
	// by the store and never change afterwards.
	Transaction struct {
		ID          int64
		OwnerID     int64
		Kind        Kind
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        Date
	}

	// Budget is a per-category spending limit. One active limit per
	// (owner, category) pair; the store upserts on conflict.
	Budget struct {
		ID       int64
		OwnerID  int64
		Category string
		Limit    decimal.Decimal
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.IsNegative() || t.Amount.GreaterThan(amountCeiling) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
