package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"kasa/internal/core"
	"kasa/internal/sheets"
	"kasa/internal/storage"
)

// KeySheetsExported holds the ids of expenses already appended to the
// spreadsheet. It lives beside the ledger keys but is owned by the processor.
const KeySheetsExported = "kasa_sheets_exported"

// SnapshotWriter persists a full copy of the ledger, such as the sync file.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, st *core.State, now time.Time) (string, error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often the recurring engine runs (default: 1h)
	PollInterval time.Duration

	// BatchSize is the max number of expenses appended to the sheet per cycle (default: 50)
	BatchSize int

	// MaxRetries is how many times a snapshot write is attempted per cycle (default: 3)
	MaxRetries int

	// RetryDelay is the wait between snapshot attempts (default: 1s)
	RetryDelay time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: time.Hour,
		BatchSize:    50,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// SyncProcessor is the background side of the ledger. Every cycle it
// reopens the store, which runs the recurring engine, then writes the
// snapshot and appends new expenses to the spreadsheet.
type SyncProcessor struct {
	store     storage.KV
	snapshots SnapshotWriter
	sheets    sheets.ExpenseWriter
	config    SyncProcessorConfig
	now       func() time.Time

	cycleMu      sync.Mutex
	lastRevision int64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor. snapshots and sheetsWriter
// may be nil.
func NewSyncProcessor(
	store storage.KV,
	snapshots SnapshotWriter,
	sheetsWriter sheets.ExpenseWriter,
	config SyncProcessorConfig,
) *SyncProcessor {
	return &SyncProcessor{
		store:     store,
		snapshots: snapshots,
		sheets:    sheetsWriter,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.cycle(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *SyncProcessor) cycle(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Sync cycle failed", "error", err)
	}
}

// HandleLedgerChanged runs a cycle for a change notification. Revisions
// already handled are ignored.
func (p *SyncProcessor) HandleLedgerChanged(ctx context.Context, revision int64) error {
	p.cycleMu.Lock()
	seen := revision != 0 && revision <= p.lastRevision
	p.cycleMu.Unlock()
	if seen {
		slog.DebugContext(ctx, "Ignoring already handled ledger revision", "revision", revision)
		return nil
	}
	if _, err := p.RunOnce(ctx); err != nil {
		return err
	}
	p.cycleMu.Lock()
	if revision > p.lastRevision {
		p.lastRevision = revision
	}
	p.cycleMu.Unlock()
	return nil
}

// CycleReport describes one sync cycle.
type CycleReport struct {
	Recurring    RecurringReport
	SnapshotPath string
	Exported     int
}

// RunOnce performs one cycle. Cycles never overlap.
func (p *SyncProcessor) RunOnce(ctx context.Context) (CycleReport, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	var report CycleReport
	ledger, open, err := Open(ctx, p.store, WithClock(p.now))
	if err != nil {
		return report, fmt.Errorf("open ledger: %w", err)
	}
	report.Recurring = open.Recurring

	if p.snapshots != nil {
		path, err := p.writeSnapshot(ctx, ledger)
		if err != nil {
			return report, err
		}
		report.SnapshotPath = path
	}

	if p.sheets != nil {
		n, err := p.exportExpenses(ctx, ledger.State())
		report.Exported = n
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (p *SyncProcessor) writeSnapshot(ctx context.Context, ledger *Ledger) (string, error) {
	attempts := max(p.config.MaxRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		now := p.now()
		path, err := p.snapshots.WriteSnapshot(ctx, ledger.State(), now)
		if err == nil {
			if err := ledger.Update(ctx, func(st *core.State, _ time.Time) error {
				st.LastSync = now
				return nil
			}); err != nil {
				return path, fmt.Errorf("record last sync: %w", err)
			}
			slog.InfoContext(ctx, "Ledger snapshot written", "path", path)
			return path, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "Snapshot write failed",
			"attempt", attempt,
			"error", err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}
	}
	return "", fmt.Errorf("write snapshot after %d attempts: %w", attempts, lastErr)
}

// exportExpenses appends expenses the sheet has not seen yet, oldest
// first, at most BatchSize per cycle.
func (p *SyncProcessor) exportExpenses(ctx context.Context, st *core.State) (int, error) {
	exported, err := p.loadExported(ctx)
	if err != nil {
		return 0, err
	}

	pending := make([]core.Expense, 0)
	for _, e := range st.Expenses {
		if !exported[e.ID] {
			pending = append(pending, e)
		}
	}
	sortOldestFirst(pending)
	if p.config.BatchSize > 0 && len(pending) > p.config.BatchSize {
		pending = pending[:p.config.BatchSize]
	}

	n := 0
	var appendErr error
	for _, e := range pending {
		ref, err := p.sheets.Append(ctx, e)
		if err != nil {
			appendErr = fmt.Errorf("append expense %s: %w", e.ID, err)
			break
		}
		exported[e.ID] = true
		n++
		slog.InfoContext(ctx, "Appended expense to sheet",
			"expense_id", e.ID,
			"sheets_ref", ref)
	}
	if n > 0 {
		if err := p.saveExported(ctx, exported); err != nil {
			return n, errors.Join(appendErr, err)
		}
	}
	return n, appendErr
}

func (p *SyncProcessor) loadExported(ctx context.Context) (map[core.ID]bool, error) {
	raw, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exported ids: %w", err)
	}
	var ids []core.ID
	if v, ok := raw[KeySheetsExported]; ok {
		if err := json.Unmarshal(v, &ids); err != nil {
			return nil, fmt.Errorf("decode exported ids: %w", err)
		}
	}
	out := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (p *SyncProcessor) saveExported(ctx context.Context, exported map[core.ID]bool) error {
	ids := make([]core.ID, 0, len(exported))
	for id := range exported {
		ids = append(ids, id)
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode exported ids: %w", err)
	}
	if err := p.store.Save(ctx, map[string]json.RawMessage{KeySheetsExported: b}); err != nil {
		return fmt.Errorf("save exported ids: %w", err)
	}
	return nil
}

func sortOldestFirst(exps []core.Expense) {
	sort.SliceStable(exps, func(i, j int) bool {
		return exps[i].ISODate.Before(exps[j].ISODate)
	})
}
