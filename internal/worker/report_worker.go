// Package worker keeps the monthly report snapshots in sync with the
// ledger. It reacts to ledger events and additionally refreshes every
// account on a timer, so missed events heal on their own.
package worker

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

// Store is the persistence surface the worker needs.
type Store interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error)
	UpsertSnapshot(ctx context.Context, s storage.ReportSnapshot) error
	DeficitAlerted(ctx context.Context, ownerID int64, year, month int) (bool, error)
	SetDeficitAlerted(ctx context.Context, ownerID int64, year, month int, alerted bool) error
}

// Exporter appends a refreshed snapshot to an external sheet. Export
// failures are logged, never propagated; the snapshot row is already
// persisted locally.
type Exporter interface {
	AppendSnapshot(ctx context.Context, s storage.ReportSnapshot) error
}

// Notifier delivers a deficit alert when a refreshed month closes
// negative.
type Notifier interface {
	NotifyDeficit(ctx context.Context, s storage.ReportSnapshot) error
}

type ReportWorker struct {
	store    Store
	exporter Exporter
	notifier Notifier
}

// NewReportWorker builds a worker. The exporter and notifier are
// optional; nil disables the corresponding side effect.
func NewReportWorker(store Store, exporter Exporter, notifier Notifier) *ReportWorker {
	return &ReportWorker{store: store, exporter: exporter, notifier: notifier}
}

// HandleLedgerEvent recomputes the snapshot for the period the event
// names. Returning an error nacks the message for redelivery.
func (w *ReportWorker) HandleLedgerEvent(msg *amqp.LedgerEventMessage) error {
	ctx := context.Background()
	if err := w.refresh(ctx, msg.OwnerID, msg.Year, msg.Month); err != nil {
		return fmt.Errorf("refresh snapshot for owner %d %d-%02d: %w", msg.OwnerID, msg.Year, msg.Month, err)
	}
	return nil
}

// RefreshAll recomputes the current month for every account.
func (w *ReportWorker) RefreshAll(ctx context.Context, now time.Time) error {
	ids, err := w.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	year, month := now.Year(), int(now.Month())
	for _, id := range ids {
		if err := w.refresh(ctx, id, year, month); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh snapshot",
				"error", err, "owner", id, "year", year, "month", month)
		}
	}

	slog.InfoContext(ctx, "Periodic snapshot refresh completed",
		"accounts", len(ids), "year", year, "month", month)
	return nil
}

func (w *ReportWorker) refresh(ctx context.Context, ownerID int64, year, month int) error {
	txs, err := w.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	agg := analytics.Aggregate(txs, year, month)
	snap := storage.ReportSnapshot{
		OwnerID: ownerID,
		Year:    agg.Year,
		Month:   agg.Month,
		Income:  agg.Income,
		Expense: agg.Expense,
		Balance: agg.Balance,
		Entries: agg.Entries,
	}

	if err := w.store.UpsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot refreshed",
		"owner", ownerID,
		"year", snap.Year,
		"month", snap.Month,
		"balance", snap.Balance.String(),
		"entries", snap.Entries)

	if w.exporter != nil {
		if err := w.exporter.AppendSnapshot(ctx, snap); err != nil {
			slog.ErrorContext(ctx, "Failed to export snapshot", "error", err, "owner", ownerID)
		}
	}

	if w.notifier != nil {
		w.alertDeficit(ctx, snap)
	}

	return nil
}

// alertDeficit sends at most one alert per month in deficit. The marker
// clears once the month recovers, so a later dip alerts again.
func (w *ReportWorker) alertDeficit(ctx context.Context, snap storage.ReportSnapshot) {
	if !snap.Balance.IsNegative() || snap.Entries == 0 {
		if err := w.store.SetDeficitAlerted(ctx, snap.OwnerID, snap.Year, snap.Month, false); err != nil {
			slog.ErrorContext(ctx, "Failed to clear deficit alert state", "error", err, "owner", snap.OwnerID)
		}
		return
	}

	alerted, err := w.store.DeficitAlerted(ctx, snap.OwnerID, snap.Year, snap.Month)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read deficit alert state", "error", err, "owner", snap.OwnerID)
		return
	}
	if alerted {
		return
	}

	if err := w.notifier.NotifyDeficit(ctx, snap); err != nil {
		slog.ErrorContext(ctx, "Failed to send deficit alert", "error", err, "owner", snap.OwnerID)
		return
	}
	if err := w.store.SetDeficitAlerted(ctx, snap.OwnerID, snap.Year, snap.Month, true); err != nil {
		slog.ErrorContext(ctx, "Failed to record deficit alert state", "error", err, "owner", snap.OwnerID)
	}
}
