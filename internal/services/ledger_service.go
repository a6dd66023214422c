// Package services contains the application layer: input normalization,
// validation, persistence, and event publication for the ledger.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Store is the persistence surface the ledger service depends on.
type Store interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id int64) error
	UpsertBudget(ctx context.Context, b core.Budget) (int64, error)
	ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, ownerID, id int64) error
	ListSnapshots(ctx context.Context, ownerID int64) ([]storage.ReportSnapshot, error)
}

// EventPublisher notifies the report worker about stale periods. A nil
// publisher disables eventing; the ledger still works standalone.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// TransactionInput carries raw user input. Amount and date arrive as
// free-form text and go through normalization before validation.
type TransactionInput struct {
	Kind        string
	Amount      string
	Category    string
	Description string
	Date        string
}

var defaultCategories = map[core.Kind][]string{
	core.KindExpense: {"Food", "Transport", "Rent", "Health", "Entertainment", "Utilities", "Shopping", "Education", "Other"},
	core.KindIncome:  {"Salary", "Freelance", "Investment", "Gift", "Other"},
}

type LedgerService struct {
	store     Store
	publisher EventPublisher
}

func NewLedgerService(store Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// AddTransaction normalizes, validates, and persists one ledger entry.
// The returned match reports whether the category was already known; an
// unknown category is stored anyway.
func (s *LedgerService) AddTransaction(ctx context.Context, ownerID int64, in TransactionInput) (core.Transaction, core.CategoryMatch, error) {
	tx, match, err := s.buildTransaction(ctx, ownerID, in, core.Transaction{OwnerID: ownerID})
	if err != nil {
		return core.Transaction{}, core.CategoryMatch{}, err
	}

	id, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, core.CategoryMatch{}, fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID = id

	s.publish(ctx, amqp.EventTransactionCreated, tx.ID, ownerID, tx.Date.Year(), tx.Date.Month())
	return tx, match, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

// ListMonth returns the owner's transactions for one (year, month)
// bucket, in date order. Zero year or month defaults to the current one.
func (s *LedgerService) ListMonth(ctx context.Context, ownerID int64, year, month int) ([]core.Transaction, error) {
	if year == 0 || month == 0 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.FilterPeriod(txs, year, month), nil
}

// UpdateTransaction overlays the input onto the stored record; empty
// input fields keep their current values. Events go out for both the
// old and the new month when the date moves across a boundary.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, id int64, in TransactionInput) (core.Transaction, core.CategoryMatch, error) {
	current, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, core.CategoryMatch{}, err
	}

	tx, match, err := s.buildTransaction(ctx, ownerID, in, current)
	if err != nil {
		return core.Transaction{}, core.CategoryMatch{}, err
	}
	tx.ID = id

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, core.CategoryMatch{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, amqp.EventTransactionUpdated, id, ownerID, tx.Date.Year(), tx.Date.Month())
	if !current.Date.In(tx.Date.Year(), tx.Date.Month()) {
		s.publish(ctx, amqp.EventTransactionUpdated, id, ownerID, current.Date.Year(), current.Date.Month())
	}
	return tx, match, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	current, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventTransactionDeleted, id, ownerID, current.Date.Year(), current.Date.Month())
	return nil
}

// Analytics aggregates one month of the owner's ledger.
func (s *LedgerService) Analytics(ctx context.Context, ownerID int64, year, month int) (analytics.PeriodAggregate, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return analytics.PeriodAggregate{}, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.Aggregate(txs, year, month), nil
}

// Projection estimates next month from the three most recent months
// with any activity. The scan looks back six calendar months so sparse
// ledgers still find their active months.
func (s *LedgerService) Projection(ctx context.Context, ownerID int64, now time.Time) (analytics.Projection, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return analytics.Projection{}, fmt.Errorf("list transactions: %w", err)
	}

	var history []analytics.PeriodAggregate
	for back := 6; back >= 1; back-- {
		m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -back, 0)
		agg := analytics.Aggregate(txs, m.Year(), int(m.Month()))
		if agg.Entries > 0 {
			history = append(history, agg)
		}
	}
	if len(history) > 3 {
		history = history[len(history)-3:]
	}

	return analytics.Project(history)
}

// Recommendations runs the advisory rules against one month.
func (s *LedgerService) Recommendations(ctx context.Context, ownerID int64, year, month int) ([]analytics.Recommendation, error) {
	agg, err := s.Analytics(ctx, ownerID, year, month)
	if err != nil {
		return nil, err
	}
	return analytics.Recommend(agg), nil
}

// SetBudget normalizes the category and upserts the limit.
func (s *LedgerService) SetBudget(ctx context.Context, ownerID int64, rawCategory, rawLimit string) (core.Budget, error) {
	category, err := core.NormalizeCategory(rawCategory)
	if err != nil {
		return core.Budget{}, err
	}
	limit, err := core.ParseAmount(rawLimit)
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{OwnerID: ownerID, Category: category, Limit: limit}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	id, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	b.ID = id
	return b, nil
}

func (s *LedgerService) ListBudgets(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, ownerID)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	return s.store.DeleteBudget(ctx, ownerID, id)
}

// BudgetReport compares one month's spending against the owner's limits.
func (s *LedgerService) BudgetReport(ctx context.Context, ownerID int64, year, month int) ([]analytics.BudgetStatus, error) {
	agg, err := s.Analytics(ctx, ownerID, year, month)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return analytics.CompareBudgets(agg, budgets), nil
}

// MonthlyReports returns the precomputed snapshots the report worker
// maintains, oldest first.
func (s *LedgerService) MonthlyReports(ctx context.Context, ownerID int64) ([]storage.ReportSnapshot, error) {
	return s.store.ListSnapshots(ctx, ownerID)
}

// buildTransaction overlays raw input onto a base record, normalizing
// each provided field. Empty input fields keep the base values, which
// makes the same path serve both create (zero base) and update.
func (s *LedgerService) buildTransaction(ctx context.Context, ownerID int64, in TransactionInput, base core.Transaction) (core.Transaction, core.CategoryMatch, error) {
	tx := base
	tx.OwnerID = ownerID

	if in.Kind != "" {
		tx.Kind = core.Kind(in.Kind)
	}
	if tx.Kind == "" {
		tx.Kind = core.KindExpense
	}

	if in.Amount != "" {
		amount, err := core.ParseAmount(in.Amount)
		if err != nil {
			return core.Transaction{}, core.CategoryMatch{}, err
		}
		tx.Amount = amount
	}

	match := core.CategoryMatch{Category: tx.Category, Known: true}
	if in.Category != "" {
		category, err := core.NormalizeCategory(in.Category)
		if err != nil {
			return core.Transaction{}, core.CategoryMatch{}, err
		}
		known, err := s.knownCategories(ctx, ownerID, tx.Kind)
		if err != nil {
			return core.Transaction{}, core.CategoryMatch{}, err
		}
		match = core.CheckCategory(category, known)
		tx.Category = match.Category
	}

	if in.Description != "" {
		tx.Description = in.Description
	}

	if in.Date != "" || base.Date.IsZero() {
		date, err := core.ParseDate(in.Date)
		if err != nil {
			return core.Transaction{}, core.CategoryMatch{}, err
		}
		tx.Date = date
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, core.CategoryMatch{}, err
	}
	return tx, match, nil
}

// knownCategories merges the defaults for the kind with the categories
// the owner has already used for that kind.
func (s *LedgerService) knownCategories(ctx context.Context, ownerID int64, kind core.Kind) ([]string, error) {
	known := make([]string, len(defaultCategories[kind]))
	copy(known, defaultCategories[kind])

	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
	}
	for _, tx := range txs {
		if tx.Kind == kind && !seen[tx.Category] {
			seen[tx.Category] = true
			known = append(known, tx.Category)
		}
	}
	return known, nil
}

func (s *LedgerService) publish(ctx context.Context, eventType string, id, ownerID int64, year, month int) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(eventType, id, ownerID, year, month)
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		// The ledger write already succeeded; the periodic refresh will
		// catch the stale snapshot.
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"error", err, "type", eventType, "owner", ownerID)
	}
}
