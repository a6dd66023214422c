package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeWorkerStore struct {
	users     []int64
	txs       map[int64][]core.Transaction
	snaps     []storage.ReportSnapshot
	alerted   map[string]bool
	listErr   error
	upsertErr error
}

func alertKey(ownerID int64, year, month int) string {
	return fmt.Sprintf("%d/%d-%d", ownerID, year, month)
}

func (f *fakeWorkerStore) DeficitAlerted(_ context.Context, ownerID int64, year, month int) (bool, error) {
	return f.alerted[alertKey(ownerID, year, month)], nil
}

func (f *fakeWorkerStore) SetDeficitAlerted(_ context.Context, ownerID int64, year, month int, alerted bool) error {
	if f.alerted == nil {
		f.alerted = map[string]bool{}
	}
	f.alerted[alertKey(ownerID, year, month)] = alerted
	return nil
}

func (f *fakeWorkerStore) ListUserIDs(_ context.Context) ([]int64, error) {
	return f.users, nil
}

func (f *fakeWorkerStore) ListTransactions(_ context.Context, ownerID int64) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.txs[ownerID], nil
}

func (f *fakeWorkerStore) UpsertSnapshot(_ context.Context, s storage.ReportSnapshot) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.snaps = append(f.snaps, s)
	return nil
}

type recordingExporter struct {
	snaps []storage.ReportSnapshot
	err   error
}

func (r *recordingExporter) AppendSnapshot(_ context.Context, s storage.ReportSnapshot) error {
	if r.err != nil {
		return r.err
	}
	r.snaps = append(r.snaps, s)
	return nil
}

type recordingNotifier struct {
	alerts []storage.ReportSnapshot
}

func (r *recordingNotifier) NotifyDeficit(_ context.Context, s storage.ReportSnapshot) error {
	r.alerts = append(r.alerts, s)
	return nil
}

func workerTx(kind core.Kind, amount int64, year, month int) core.Transaction {
	return core.Transaction{
		OwnerID:  1,
		Kind:     kind,
		Amount:   decimal.NewFromInt(amount),
		Category: "General",
		Date:     core.NewDate(year, month, 10),
	}
}

func TestHandleLedgerEventRefreshesSnapshot(t *testing.T) {
	store := &fakeWorkerStore{
		txs: map[int64][]core.Transaction{
			1: {
				workerTx(core.KindIncome, 3000, 2024, 1),
				workerTx(core.KindExpense, 1600, 2024, 1),
			},
		},
	}
	w := NewReportWorker(store, nil, nil)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionCreated, 1, 1, 2024, 1)
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if len(store.snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(store.snaps))
	}
	snap := store.snaps[0]
	if !snap.Balance.Equal(decimal.NewFromInt(1400)) || snap.Entries != 2 {
		t.Errorf("snapshot = %+v, want balance 1400 entries 2", snap)
	}
}

func TestHandleLedgerEventPropagatesStoreErrors(t *testing.T) {
	store := &fakeWorkerStore{listErr: errors.New("db down")}
	w := NewReportWorker(store, nil, nil)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionCreated, 1, 1, 2024, 1)
	if err := w.HandleLedgerEvent(msg); err == nil {
		t.Error("expected error for redelivery")
	}
}

func TestRefreshExportsAndAlerts(t *testing.T) {
	store := &fakeWorkerStore{
		txs: map[int64][]core.Transaction{
			1: {
				workerTx(core.KindIncome, 1000, 2024, 2),
				workerTx(core.KindExpense, 1500, 2024, 2),
			},
		},
	}
	exporter := &recordingExporter{}
	notifier := &recordingNotifier{}
	w := NewReportWorker(store, exporter, notifier)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionUpdated, 1, 1, 2024, 2)
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if len(exporter.snaps) != 1 {
		t.Errorf("exporter got %d snapshots, want 1", len(exporter.snaps))
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("notifier got %d alerts, want 1", len(notifier.alerts))
	}
	if !notifier.alerts[0].Balance.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("alert balance = %s, want -500", notifier.alerts[0].Balance)
	}
}

func TestRefreshExportFailureIsNotFatal(t *testing.T) {
	store := &fakeWorkerStore{
		txs: map[int64][]core.Transaction{
			1: {workerTx(core.KindIncome, 100, 2024, 3)},
		},
	}
	exporter := &recordingExporter{err: errors.New("sheets unavailable")}
	w := NewReportWorker(store, exporter, nil)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionCreated, 1, 1, 2024, 3)
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Errorf("export failure should not fail the event: %v", err)
	}
	if len(store.snaps) != 1 {
		t.Errorf("snapshot should still be written, got %d", len(store.snaps))
	}
}

func TestRefreshAllCoversEveryAccount(t *testing.T) {
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	store := &fakeWorkerStore{
		users: []int64{1, 2},
		txs: map[int64][]core.Transaction{
			1: {workerTx(core.KindIncome, 100, 2024, 4)},
		},
	}
	w := NewReportWorker(store, nil, nil)

	if err := w.RefreshAll(context.Background(), now); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(store.snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(store.snaps))
	}
	// Account 2 has no activity; its snapshot is a valid zero row.
	if store.snaps[1].Entries != 0 || !store.snaps[1].Balance.IsZero() {
		t.Errorf("empty account snapshot = %+v, want zero row", store.snaps[1])
	}
}

func TestDeficitAlertFiresOncePerMonth(t *testing.T) {
	store := &fakeWorkerStore{
		txs: map[int64][]core.Transaction{
			1: {
				workerTx(core.KindIncome, 1000, 2024, 2),
				workerTx(core.KindExpense, 1500, 2024, 2),
			},
		},
	}
	notifier := &recordingNotifier{}
	w := NewReportWorker(store, nil, notifier)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionUpdated, 1, 1, 2024, 2)
	for i := 0; i < 3; i++ {
		if err := w.HandleLedgerEvent(msg); err != nil {
			t.Fatalf("HandleLedgerEvent: %v", err)
		}
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("got %d alerts after repeated refreshes, want 1", len(notifier.alerts))
	}

	// The month recovers, then dips again: a fresh alert goes out.
	store.txs[1] = append(store.txs[1], workerTx(core.KindIncome, 600, 2024, 2))
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Fatalf("HandleLedgerEvent after recovery: %v", err)
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("recovered month should not alert, got %d", len(notifier.alerts))
	}

	store.txs[1] = append(store.txs[1], workerTx(core.KindExpense, 700, 2024, 2))
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Fatalf("HandleLedgerEvent after second dip: %v", err)
	}
	if len(notifier.alerts) != 2 {
		t.Fatalf("second dip should alert again, got %d alerts", len(notifier.alerts))
	}
}

func TestNoDeficitAlertForEmptyMonth(t *testing.T) {
	store := &fakeWorkerStore{txs: map[int64][]core.Transaction{}}
	notifier := &recordingNotifier{}
	w := NewReportWorker(store, nil, notifier)

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionDeleted, 1, 1, 2024, 5)
	if err := w.HandleLedgerEvent(msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("no alert expected for an empty month, got %+v", notifier.alerts)
	}
}
