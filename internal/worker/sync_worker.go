// Package worker turns ledger change notifications into sync cycles.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kasa/internal/amqp"
	"kasa/internal/services"
)

// Processor runs sync cycles; *services.SyncProcessor implements it.
type Processor interface {
	HandleLedgerChanged(ctx context.Context, revision int64) error
	RunOnce(ctx context.Context) (services.CycleReport, error)
}

// Consumer delivers change notifications; *amqp.Client implements it.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// SyncWorker handles ledger change notifications from AMQP
type SyncWorker struct {
	processor Processor
	// maxAge drops notifications older than this; zero keeps all
	maxAge time.Duration
	now    func() time.Time
}

func NewSyncWorker(processor Processor, maxAge time.Duration) *SyncWorker {
	return &SyncWorker{processor: processor, maxAge: maxAge, now: time.Now}
}

// HandleMessage runs a cycle for one notification. Stale notifications are
// acknowledged without work because the polling loop covers them.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change message",
		"revision", msg.Revision,
		"keys", len(msg.Keys))

	if w.maxAge > 0 && !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > w.maxAge {
		slog.WarnContext(ctx, "Dropping stale ledger change message",
			"revision", msg.Revision,
			"timestamp", msg.Timestamp)
		return nil
	}

	if err := w.processor.HandleLedgerChanged(ctx, msg.Revision); err != nil {
		return fmt.Errorf("handle ledger revision %d: %w", msg.Revision, err)
	}
	return nil
}

// StartupSyncCheck runs one cycle before consuming, to recover from missed
// messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	report, err := w.processor.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"plan_expenses", len(report.Recurring.Materialized),
		"income_entries", len(report.Recurring.Income),
		"snapshot", report.SnapshotPath,
		"exported", report.Exported)
	return nil
}

// Run consumes notifications until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.ConsumeLedgerChanged(ctx, w.HandleMessage)
}
