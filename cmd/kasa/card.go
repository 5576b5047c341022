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

func cardGroup() subcommands.Command {
	return &group{
		name:     "card",
		synopsis: "manage credit cards and view statements",
		verbs:    []subcommands.Command{&cardAddCmd{}, &cardEditCmd{}, &cardDeleteCmd{}, &cardStatementCmd{}, &cardListCmd{}},
	}
}

type cardFlags struct {
	name, limit, brand, last4 string
	cutoff                    int
}

func (c *cardFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "card name")
	f.IntVar(&c.cutoff, "cutoff", 0, "statement cutoff day (1-31)")
	f.StringVar(&c.limit, "limit", "", "credit limit")
	f.StringVar(&c.brand, "brand", "", "card brand")
	f.StringVar(&c.last4, "last4", "", "last four digits")
}

type cardAddCmd struct{ cardFlags }

func (*cardAddCmd) Name() string     { return "add" }
func (*cardAddCmd) Synopsis() string { return "register a credit card" }
func (*cardAddCmd) Usage() string {
	return "kasa card add -name <name> -cutoff <day> -limit <amount> [-brand <brand>] [-last4 <digits>]\n"
}
func (c *cardAddCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *cardAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.limit == "" {
		return usage(f, "-name and -limit are required")
	}
	limit, err := parseMoney(c.limit)
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		card, err := services.AddCard(st, services.CardInput{Name: c.name, Cutoff: c.cutoff, Limit: limit, Brand: c.brand, Last4: c.last4})
		if err != nil {
			return err
		}
		fmt.Printf("Kart eklendi: %s\n", card.ID)
		return nil
	})
}

type cardEditCmd struct{ cardFlags }

func (*cardEditCmd) Name() string     { return "edit" }
func (*cardEditCmd) Synopsis() string { return "rename a card or change its cutoff or limit" }
func (*cardEditCmd) Usage() string {
	return "kasa card edit [-name <name>] [-cutoff <day>] [-limit <amount>] <card>\n"
}
func (c *cardEditCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *cardEditCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "card id or name is required")
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		card, err := findCard(st, f.Arg(0))
		if err != nil {
			return err
		}
		in := services.CardInput{Name: card.Name, Cutoff: card.Cutoff, Limit: card.Limit.Cents, Brand: card.Brand, Last4: card.Last4}
		if c.name != "" {
			in.Name = c.name
		}
		if c.cutoff != 0 {
			in.Cutoff = c.cutoff
		}
		if c.limit != "" {
			if in.Limit, err = parseMoney(c.limit); err != nil {
				return err
			}
		}
		if c.brand != "" {
			in.Brand = c.brand
		}
		if c.last4 != "" {
			in.Last4 = c.last4
		}
		_, err = services.UpdateCard(st, card.ID, in)
		return err
	})
}

type cardDeleteCmd struct{}

func (*cardDeleteCmd) Name() string     { return "delete" }
func (*cardDeleteCmd) Synopsis() string { return "delete a card with its expenses and plans" }
func (*cardDeleteCmd) Usage() string    { return "kasa card delete <card>\n" }
func (*cardDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *cardDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "card id or name is required")
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		card, err := findCard(st, f.Arg(0))
		if err != nil {
			return err
		}
		exps, plans, err := services.DeleteCard(st, card.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Kart silindi: %d harcama, %d plan kaldırıldı\n", exps, plans)
		return nil
	})
}

type cardStatementCmd struct {
	offset int
	date   string
}

func (*cardStatementCmd) Name() string     { return "statement" }
func (*cardStatementCmd) Synopsis() string { return "show a card's billing cycle" }
func (*cardStatementCmd) Usage() string {
	return `kasa card statement [-p <offset>] [-d <date>] <card>

  Shows the cycle containing the date; -p -1 is the previous cycle.
`
}

func (c *cardStatementCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.offset, "p", 0, "cycle offset in months")
	f.StringVar(&c.date, "d", "", "reference date (defaults to today)")
}

func (c *cardStatementCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "card id or name is required")
	}
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	ref, err := parseDate(c.date, ledger.Now())
	if err != nil {
		return usage(f, err.Error())
	}
	card, err := findCard(ledger.State(), f.Arg(0))
	if err != nil {
		return fail(err)
	}
	return rt.print(rt.printer().Statement(services.CardStatement(ledger.State(), *card, ref, c.offset)))
}

type cardListCmd struct {
	offset int
}

func (*cardListCmd) Name() string     { return "list" }
func (*cardListCmd) Synopsis() string { return "show every card with totals" }
func (*cardListCmd) Usage() string    { return "kasa card list [-p <offset>]\n" }
func (c *cardListCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.offset, "p", 0, "cycle offset in months")
}

func (c *cardListCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	st := ledger.State()
	ov := services.AllCardsOverview(st, core.Today(ledger.Now()), c.offset)
	return rt.print(rt.printer().Cards(st, ov))
}

type payCmd struct {
	amount, date string
}

func (*payCmd) Name() string     { return "pay" }
func (*payCmd) Synopsis() string { return "pay card debt from the wallet" }
func (*payCmd) Usage() string {
	return `kasa pay -a <amount> [-d <date>] <card>

  Pays card debt out of the wallet. The amount may not exceed the debt.
`
}

func (c *payCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "amount")
	f.StringVar(&c.date, "d", "", "payment date (defaults to today)")
}

func (c *payCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.amount == "" {
		return usage(f, "card and -a are required")
	}
	amount, err := parseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		card, err := findCard(st, f.Arg(0))
		if err != nil {
			return err
		}
		date, err := parseDate(c.date, now)
		if err != nil {
			return err
		}
		_, err = services.PayDebt(st, card.ID, amount, date, now)
		if err == nil {
			fmt.Printf("Kalan borç: %s\n", core.FormatMoney(services.CardDebt(st, *card)))
		}
		return err
	})
}
