package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kasa/internal/core"
	"kasa/internal/log"
	"kasa/internal/storage"
)

// Publisher announces committed changes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, revision int64, keys []string) error
}

// Ledger owns the state for one session: it loads and upgrades the store,
// runs the recurring engine, and writes every change back.
type Ledger struct {
	store     storage.KV
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger

	state    *core.State
	revision int64
}

type Option func(*Ledger)

// WithPublisher sends a change notification after every commit.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// OpenReport describes what Open had to do to bring the store up to date.
type OpenReport struct {
	Migration     MigrationReport
	BoundCards    int
	Recurring     RecurringReport
	FreshDatabase bool
}

// Open loads the ledger. A legacy store is migrated to minor units, card
// references are resolved, and the recurring engine catches up. Anything
// that changed is committed before Open returns.
func Open(ctx context.Context, store storage.KV, opts ...Option) (*Ledger, OpenReport, error) {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		logger: log.FromContext(ctx).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(l)
	}

	var report OpenReport
	raw, err := store.Load(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("load ledger: %w", err)
	}

	var st *core.State
	if len(raw) == 0 {
		report.FreshDatabase = true
		st = core.NewState()
	} else {
		version, err := storage.DecodeVersion(raw[storage.KeyDataVersion])
		if err != nil {
			return nil, report, fmt.Errorf("read data version: %w", err)
		}
		if version == 0 {
			version = 1
		}
		if report.Migration, err = MigrateCurrency(ctx, raw, version); err != nil {
			return nil, report, err
		}
		if st, err = storage.DecodeState(raw); err != nil {
			return nil, report, fmt.Errorf("decode ledger: %w", err)
		}
	}
	upgraded := st.DataVersion < core.SchemaVersion
	report.BoundCards = ResolveCardReferences(st)
	l.state = st

	report.Recurring = l.runRecurring(ctx)
	if report.FreshDatabase || upgraded || report.Migration.Ran() || report.BoundCards > 0 || report.Recurring.Changed() {
		if err := l.commit(ctx); err != nil {
			return nil, report, err
		}
	}
	return l, report, nil
}

// State exposes the ledger for reading. Changes must go through Update.
func (l *Ledger) State() *core.State { return l.state }

// Now is the ledger's clock.
func (l *Ledger) Now() time.Time { return l.now() }

// Update runs fn against the state and commits when it succeeds. Operations
// validate before they mutate, so a failed fn leaves nothing to write.
func (l *Ledger) Update(ctx context.Context, fn func(st *core.State, now time.Time) error) error {
	if err := fn(l.state, l.now()); err != nil {
		return err
	}
	return l.commit(ctx)
}

// Process runs the recurring engine, as on every resume, and commits if it
// produced anything.
func (l *Ledger) Process(ctx context.Context) (RecurringReport, error) {
	report := l.runRecurring(ctx)
	if !report.Changed() {
		return report, nil
	}
	return report, l.commit(ctx)
}

func (l *Ledger) runRecurring(ctx context.Context) RecurringReport {
	now := l.now()
	report := ProcessRecurringPlans(ctx, l.state, now)
	report.Income = ProcessRecurringIncome(ctx, l.state, now)
	return report
}

// Reset erases every key and starts over with an empty ledger.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	l.state = core.NewState()
	l.logger.WarnContext(ctx, "Ledger reset to factory state")
	return l.commit(ctx)
}

// Revision is the revision of the last commit, zero before the first.
func (l *Ledger) Revision() int64 { return l.revision }

func (l *Ledger) commit(ctx context.Context) error {
	values, err := storage.EncodeState(l.state)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.store.Save(ctx, values); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	rev := l.now().UnixNano()
	if rev <= l.revision {
		rev = l.revision + 1
	}
	l.revision = rev

	keys := make([]string, 0, len(values))
	for _, k := range storage.AllKeys {
		if _, ok := values[k]; ok {
			keys = append(keys, k)
		}
	}
	l.logger.DebugContext(ctx, "Ledger committed", log.NewFields().WithOperation(log.OpCommit).WithCommit(rev, len(keys)).ToSlice()...)

	if l.publisher != nil {
		if err := l.publisher.PublishLedgerChanged(ctx, rev, keys); err != nil {
			// The write already succeeded; a missed notification only delays
			// the next file sync.
			l.logger.WarnContext(ctx, "Failed to publish ledger change",
				log.FieldRevision, rev,
				log.FieldError, err)
		}
	}
	return nil
}

// Close releases the store.
func (l *Ledger) Close() error {
	var errs []error
	if l.store != nil {
		if err := l.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
