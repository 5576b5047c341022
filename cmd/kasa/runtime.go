package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"kasa/internal/amqp"
	"kasa/internal/cli"
	"kasa/internal/config"
	"kasa/internal/core"
	"kasa/internal/log"
	"kasa/internal/report"
	"kasa/internal/services"
	"kasa/internal/storage"
)

// runtime opens the ledger on first use and releases it on Close.
type runtime struct {
	logger *log.Logger
	raw    bool

	cfg       *config.Config
	store     *storage.SQLiteKV
	publisher *amqp.Client
	ledger    *services.Ledger
}

func newRuntime(logger *log.Logger, raw bool) *runtime {
	return &runtime{logger: logger, raw: raw}
}

func (rt *runtime) config() *config.Config {
	if rt.cfg == nil {
		rt.cfg = cli.LoadAndValidateConfig(rt.logger)
	}
	return rt.cfg
}

// open loads the ledger. Opening runs migrations and the recurring engine,
// so every command sees an up to date ledger.
func (rt *runtime) open(ctx context.Context) (*services.Ledger, error) {
	if rt.ledger != nil {
		return rt.ledger, nil
	}
	cfg := rt.config()
	rt.store = cli.InitStore(rt.logger, cfg.DBPath)

	var opts []services.Option
	pub, err := cli.InitPublisher(ctx, cfg)
	if err != nil {
		// the ledger works without notifications; the worker polls
		rt.logger.WarnContext(ctx, "Change notifications disabled", log.FieldError, err)
	} else if pub != nil {
		rt.publisher = pub
		opts = append(opts, services.WithPublisher(pub))
	}

	ledger, openReport, err := services.Open(ctx, rt.store, opts...)
	if err != nil {
		return nil, err
	}
	if openReport.Migration.Ran() {
		rt.logger.InfoContext(ctx, "Converted legacy amounts to minor units")
	}
	if n := len(openReport.Recurring.Materialized); n > 0 {
		fmt.Fprintf(os.Stderr, "%d düzenli ödeme işlendi\n", n)
	}
	rt.ledger = ledger
	return ledger, nil
}

// storeOnly opens the store without loading the ledger, for commands that
// replace its content.
func (rt *runtime) storeOnly() *storage.SQLiteKV {
	if rt.store == nil {
		rt.store = cli.InitStore(rt.logger, rt.config().DBPath)
	}
	return rt.store
}

func (rt *runtime) printer() *report.Printer {
	f, err := core.NewFormatter(rt.config().Currency)
	if err != nil {
		f, _ = core.NewFormatter(core.DefaultCurrency)
	}
	privacy := false
	if rt.ledger != nil {
		privacy = rt.ledger.State().IsPrivacyMode
	}
	return report.NewPrinter(f, privacy)
}

func (rt *runtime) print(md string) subcommands.ExitStatus {
	if err := report.Print(os.Stdout, md, rt.raw); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		rt.publisher.Close()
	}
	if rt.ledger != nil {
		rt.ledger.Close()
		return
	}
	if rt.store != nil {
		rt.store.Close()
	}
}

// runtimeOf extracts the runtime main passes to every command.
func runtimeOf(args []interface{}) *runtime {
	for _, a := range args {
		if rt, ok := a.(*runtime); ok {
			return rt
		}
	}
	panic("kasa: command executed without runtime")
}

// update opens the ledger and commits fn.
func update(ctx context.Context, args []interface{}, fn func(st *core.State, now time.Time) error) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	if err := ledger.Update(ctx, fn); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Hata: %v\n", err)
	var limitErr *services.LimitError
	if errors.As(err, &limitErr) {
		fmt.Fprintf(os.Stderr, "%s kartında kalan limit: %s\n", limitErr.Card, core.FormatMoney(limitErr.Remaining))
	}
	return subcommands.ExitFailure
}

func usage(f *flag.FlagSet, msg string) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Hata: %s\n", msg)
	f.Usage()
	return subcommands.ExitUsageError
}

// group nests verbs under a noun, as in "kasa card add".
type group struct {
	name, synopsis string
	verbs          []subcommands.Command
}

func (g *group) Name() string     { return g.name }
func (g *group) Synopsis() string { return g.synopsis }
func (g *group) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kasa %s <verb> [flags]\n\n", g.name)
	for _, v := range g.verbs {
		fmt.Fprintf(&b, "  %-10s %s\n", v.Name(), v.Synopsis())
	}
	return b.String()
}
func (g *group) SetFlags(*flag.FlagSet) {}

func (g *group) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cdr := subcommands.NewCommander(f, "kasa "+g.name)
	for _, v := range g.verbs {
		cdr.Register(v, "")
	}
	return cdr.Execute(ctx, args...)
}

func parseMoney(s string) (int64, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, fmt.Errorf("tutar %q: %w", s, err)
	}
	return cents, nil
}

func parseDate(s string, now time.Time) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Today(now), nil
	}
	return core.ParseDate(s)
}

func parseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
	if err != nil || !q.IsPositive() {
		return decimal.Zero, fmt.Errorf("miktar %q: %w", s, core.ErrInvalidQuantity)
	}
	return q, nil
}

// findCard accepts a card id or name.
func findCard(st *core.State, ref string) (*core.Card, error) {
	if c, ok := st.CardByID(core.ID(ref)); ok {
		return c, nil
	}
	if c, ok := st.CardByName(ref); ok {
		return c, nil
	}
	return nil, fmt.Errorf("kart %q: %w", ref, core.ErrNotFound)
}
