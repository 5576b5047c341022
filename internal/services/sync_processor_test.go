package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kasa/internal/core"
	"kasa/internal/storage/memory"
)

type fakeSnapshots struct {
	calls int
	fail  int // number of leading calls that fail
	last  *core.State
}

func (f *fakeSnapshots) WriteSnapshot(_ context.Context, st *core.State, _ time.Time) (string, error) {
	f.calls++
	if f.calls <= f.fail {
		return "", errors.New("disk full")
	}
	f.last = st
	return "/tmp/kasa.json", nil
}

type fakeSheet struct {
	rows []core.Expense
	err  error
}

func (f *fakeSheet) Append(_ context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, e)
	return "Sheet1!A1", nil
}

func TestNewSyncProcessor(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	processor := NewSyncProcessor(nil, nil, nil, config)

	if processor == nil {
		t.Fatal("NewSyncProcessor should return non-nil processor")
	}
	if processor.store != nil {
		t.Error("store should be nil when passed nil")
	}
	if processor.snapshots != nil {
		t.Error("snapshots should be nil when passed nil")
	}
	if processor.sheets != nil {
		t.Error("sheets should be nil when passed nil")
	}
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.PollInterval != time.Hour {
		t.Errorf("expected PollInterval 1h, got %v", config.PollInterval)
	}
	if config.BatchSize != 50 {
		t.Errorf("expected BatchSize 50, got %d", config.BatchSize)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func TestSyncProcessor_StartTwice(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, nil, DefaultSyncProcessorConfig())

	processor.mu.Lock()
	processor.running = true
	processor.mu.Unlock()

	if err := processor.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running processor")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, nil, DefaultSyncProcessorConfig())
	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	store := memory.New()
	config := DefaultSyncProcessorConfig()
	config.PollInterval = 10 * time.Millisecond
	processor := NewSyncProcessor(store, nil, nil, config)

	ctx := context.Background()
	if err := processor.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor should be running after Start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := processor.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
	if store.Saves() == 0 {
		t.Error("first cycle should have initialized the store")
	}
}

func TestSyncProcessor_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.Local)
	store := memory.New()

	ledger, _, err := Open(ctx, store, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := ledger.Update(ctx, func(st *core.State, now time.Time) error {
		_, err := AddExpense(st, ExpenseInput{Merchant: "Migros", Amount: 2000, Method: "Nakit", Category: "Market", Date: core.NewDate(2024, 3, 1)}, now)
		if err != nil {
			return err
		}
		_, err = AddExpense(st, ExpenseInput{Merchant: "BIM", Amount: 1000, Method: "Nakit", Category: "Market", Date: core.NewDate(2024, 3, 2)}, now)
		return err
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	snaps := &fakeSnapshots{fail: 1}
	sheet := &fakeSheet{}
	config := DefaultSyncProcessorConfig()
	config.RetryDelay = time.Millisecond
	processor := NewSyncProcessor(store, snaps, sheet, config)
	processor.now = func() time.Time { return now }

	report, err := processor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if snaps.calls != 2 {
		t.Errorf("snapshot attempts = %d, want 2", snaps.calls)
	}
	if report.SnapshotPath == "" {
		t.Error("SnapshotPath should be set")
	}
	if report.Exported != 2 || len(sheet.rows) != 2 || sheet.rows[0].Merchant != "Migros" {
		t.Errorf("exported rows = %+v, want Migros then BIM", sheet.rows)
	}

	// A second cycle appends nothing new and records the sync time.
	report, err = processor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if report.Exported != 0 {
		t.Errorf("second cycle exported %d, want 0", report.Exported)
	}
	reopened, _, err := Open(ctx, store, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !reopened.State().LastSync.Equal(now) {
		t.Errorf("LastSync = %v, want %v", reopened.State().LastSync, now)
	}
}

func TestSyncProcessor_HandleLedgerChangedSkipsSeenRevision(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	processor := NewSyncProcessor(memory.New(), snaps, nil, DefaultSyncProcessorConfig())

	if err := processor.HandleLedgerChanged(ctx, 10); err != nil {
		t.Fatalf("HandleLedgerChanged() error = %v", err)
	}
	if err := processor.HandleLedgerChanged(ctx, 9); err != nil {
		t.Fatalf("HandleLedgerChanged() error = %v", err)
	}
	if snaps.calls != 1 {
		t.Errorf("snapshot calls = %d, want 1", snaps.calls)
	}
}

func TestSyncProcessor_SheetFailureKeepsProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.Local)
	ledger, _, _ := Open(ctx, store, WithClock(func() time.Time { return now }))
	ledger.Update(ctx, func(st *core.State, now time.Time) error {
		_, err := AddExpense(st, ExpenseInput{Merchant: "A101", Amount: 500, Method: "Nakit", Category: "Market", Date: core.NewDate(2024, 3, 5)}, now)
		return err
	})

	sheet := &fakeSheet{err: errors.New("quota exceeded")}
	processor := NewSyncProcessor(store, nil, sheet, DefaultSyncProcessorConfig())
	if _, err := processor.RunOnce(ctx); err == nil {
		t.Fatal("RunOnce() should report the sheet failure")
	}

	sheet.err = nil
	report, err := processor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if report.Exported != 1 {
		t.Errorf("Exported = %d, want 1 after recovery", report.Exported)
	}
}
