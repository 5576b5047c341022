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

func expenseGroup() subcommands.Command {
	return &group{
		name:     "expense",
		synopsis: "record, edit, delete and list expenses",
		verbs:    []subcommands.Command{&expenseAddCmd{}, &expenseEditCmd{}, &expenseDeleteCmd{}, &expenseListCmd{}, &merchantForgetCmd{}},
	}
}

type expenseAddCmd struct {
	merchant, description, amount, method, category, date string
	installments                                          int
}

func (*expenseAddCmd) Name() string     { return "add" }
func (*expenseAddCmd) Synopsis() string { return "record an expense" }
func (*expenseAddCmd) Usage() string {
	return `kasa expense add -m <merchant> -a <amount> [-method <method>] [-c <category>] [-d <date>] [-n <installments>]

  Records an expense. When the method names a card the expense is charged to
  that card, split into -n monthly installments; otherwise it leaves the wallet.
`
}

func (c *expenseAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.merchant, "m", "", "merchant")
	f.StringVar(&c.description, "desc", "", "description")
	f.StringVar(&c.amount, "a", "", "amount, e.g. 125,50")
	f.StringVar(&c.method, "method", core.DefaultMethods[0], "payment method or card name")
	f.StringVar(&c.category, "c", "Diğer", "category")
	f.StringVar(&c.date, "d", "", "date (YYYY-MM-DD or DD.MM.YYYY, defaults to today)")
	f.IntVar(&c.installments, "n", 1, "installments for card expenses")
}

func (c *expenseAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.merchant == "" || c.amount == "" {
		return usage(f, "-m and -a are required")
	}
	amount, err := parseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		date, err := parseDate(c.date, now)
		if err != nil {
			return err
		}
		in := services.ExpenseInput{Merchant: c.merchant, Description: c.description, Amount: amount, Method: c.method, Category: c.category, Date: date}
		if card, ok := st.CardByName(c.method); ok {
			exps, err := services.AddCreditExpense(st, card.ID, in, c.installments)
			if err != nil {
				return err
			}
			fmt.Printf("%s kartına %d işlem eklendi\n", card.Name, len(exps))
			return nil
		}
		e, err := services.AddExpense(st, in, now)
		if err != nil {
			return err
		}
		fmt.Printf("Harcama eklendi: %s\n", e.ID)
		return nil
	})
}

type expenseEditCmd struct {
	merchant, amount, date string
}

func (*expenseEditCmd) Name() string     { return "edit" }
func (*expenseEditCmd) Synopsis() string { return "change merchant, amount or date of an expense" }
func (*expenseEditCmd) Usage() string {
	return `kasa expense edit [-m <merchant>] [-a <amount>] [-d <date>] <id>
`
}

func (c *expenseEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.merchant, "m", "", "new merchant")
	f.StringVar(&c.amount, "a", "", "new amount")
	f.StringVar(&c.date, "d", "", "new date")
}

func (c *expenseEditCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "expense id is required")
	}
	id := core.ID(f.Arg(0))
	return update(ctx, args, func(st *core.State, now time.Time) error {
		idx := st.ExpenseIndex(id)
		if idx < 0 {
			return fmt.Errorf("harcama %s: %w", id, core.ErrNotFound)
		}
		cur := st.Expenses[idx]
		merchant, amount, date := cur.Merchant, cur.Amount.Cents, cur.ISODate
		if c.merchant != "" {
			merchant = c.merchant
		}
		if c.amount != "" {
			v, err := parseMoney(c.amount)
			if err != nil {
				return err
			}
			amount = v
		}
		if c.date != "" {
			d, err := core.ParseDate(c.date)
			if err != nil {
				return err
			}
			date = d
		}
		_, err := services.EditExpense(st, id, merchant, amount, date, now)
		return err
	})
}

type expenseDeleteCmd struct{}

func (*expenseDeleteCmd) Name() string             { return "delete" }
func (*expenseDeleteCmd) Synopsis() string         { return "delete an expense and restore its wallet effect" }
func (*expenseDeleteCmd) Usage() string            { return "kasa expense delete <id>...\n" }
func (*expenseDeleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *expenseDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage(f, "at least one expense id is required")
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		for _, id := range f.Args() {
			if _, err := services.DeleteExpense(st, core.ID(id), now); err != nil {
				return err
			}
		}
		return nil
	})
}

type expenseListCmd struct {
	month string
}

func (*expenseListCmd) Name() string     { return "list" }
func (*expenseListCmd) Synopsis() string { return "list the expenses of a month" }
func (*expenseListCmd) Usage() string {
	return "kasa expense list [-month YYYY-MM]\n"
}

func (c *expenseListCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month (defaults to the current one)")
}

func (c *expenseListCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	ym, err := monthFlag(c.month, ledger.Now())
	if err != nil {
		return usage(f, err.Error())
	}
	var exps []core.Expense
	for _, e := range ledger.State().Expenses {
		if ym.Contains(e.ISODate) {
			exps = append(exps, e)
		}
	}
	return rt.print(rt.printer().Expenses(ym.String()+" Harcamaları", exps))
}

type merchantForgetCmd struct{}

func (*merchantForgetCmd) Name() string             { return "forget" }
func (*merchantForgetCmd) Synopsis() string         { return "remove a merchant from the suggestions" }
func (*merchantForgetCmd) Usage() string            { return "kasa expense forget <merchant>\n" }
func (*merchantForgetCmd) SetFlags(f *flag.FlagSet) {}

func (c *merchantForgetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "merchant is required")
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		if !services.RemoveMerchant(st, f.Arg(0)) {
			return fmt.Errorf("yer %q: %w", f.Arg(0), core.ErrNotFound)
		}
		return nil
	})
}

func monthFlag(s string, now time.Time) (core.YearMonth, error) {
	if s == "" {
		return core.MonthOf(core.Today(now)), nil
	}
	return core.ParseYearMonth(s)
}
