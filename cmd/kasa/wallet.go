package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"kasa/internal/core"
	"kasa/internal/services"
)

func walletGroup() subcommands.Command {
	return &group{
		name:     "wallet",
		synopsis: "add manual wallet entries and show the balance",
		verbs:    []subcommands.Command{&walletAddCmd{}, &walletDeleteCmd{}, &walletShowCmd{}},
	}
}

type walletAddCmd struct {
	title, amount, date string
	out                 bool
}

func (*walletAddCmd) Name() string     { return "add" }
func (*walletAddCmd) Synopsis() string { return "record money in or out of the wallet" }
func (*walletAddCmd) Usage() string {
	return "kasa wallet add -t <title> -a <amount> [-out] [-d <date>]\n"
}

func (c *walletAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.title, "t", "", "title")
	f.StringVar(&c.amount, "a", "", "amount")
	f.BoolVar(&c.out, "out", false, "money leaves the wallet")
	f.StringVar(&c.date, "d", "", "date (defaults to today)")
}

func (c *walletAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.title == "" || c.amount == "" {
		return usage(f, "-t and -a are required")
	}
	amount, err := parseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		on, err := parseDate(c.date, now)
		if err != nil {
			return err
		}
		if _, err := services.AddWalletEntry(st, c.title, amount, !c.out, on, now); err != nil {
			return err
		}
		fmt.Printf("Bakiye: %s\n", core.FormatMoney(services.Balance(st)))
		return nil
	})
}

type walletDeleteCmd struct{}

func (*walletDeleteCmd) Name() string           { return "delete" }
func (*walletDeleteCmd) Synopsis() string       { return "delete wallet entries" }
func (*walletDeleteCmd) Usage() string          { return "kasa wallet delete <id>...\n" }
func (*walletDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *walletDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage(f, "at least one entry id is required")
	}
	ids := make([]core.ID, 0, f.NArg())
	for _, a := range f.Args() {
		ids = append(ids, core.ID(a))
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		n := services.DeleteBalanceLogs(st, ids...)
		if n == 0 {
			return fmt.Errorf("kayıt: %w", core.ErrNotFound)
		}
		fmt.Printf("%d kayıt silindi\n", n)
		return nil
	})
}

type walletShowCmd struct {
	limit int
}

func (*walletShowCmd) Name() string     { return "show" }
func (*walletShowCmd) Synopsis() string { return "show the balance and latest entries" }
func (*walletShowCmd) Usage() string    { return "kasa wallet show [-n <entries>]\n" }
func (c *walletShowCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "number of entries to show")
}

func (c *walletShowCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	return rt.print(rt.printer().Wallet(ledger.State(), c.limit))
}
