package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"kasa/internal/core"
	"kasa/internal/services"
)

func planGroup() subcommands.Command {
	return &group{
		name:     "plan",
		synopsis: "manage recurring payments and subscriptions",
		verbs: []subcommands.Command{
			&planAddCmd{}, &planEditCmd{},
			&planActiveCmd{name: "pause"}, &planActiveCmd{name: "resume", active: true},
			&planDeleteCmd{}, &planListCmd{},
		},
	}
}

type planFlags struct {
	name, amount, method, icon string
	cashback, cashbackType     string
	campaignEnd                string
	day                        int
	autoPay                    bool
}

func (c *planFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "plan name")
	f.StringVar(&c.amount, "a", "", "monthly amount")
	f.IntVar(&c.day, "day", 1, "day of month the payment is due")
	f.StringVar(&c.method, "method", core.DefaultMethods[0], "payment method or card name")
	f.BoolVar(&c.autoPay, "auto", true, "charge automatically on the due day")
	f.StringVar(&c.icon, "icon", "", "icon")
	f.StringVar(&c.cashbackType, "cashback-type", string(core.CashbackNone), "none, percent or fixed")
	f.StringVar(&c.cashback, "cashback", "0", "cashback percent, or amount when fixed")
	f.StringVar(&c.campaignEnd, "campaign-end", "", "last day of the cashback campaign")
}

func (c *planFlags) input() (services.PlanInput, error) {
	in := services.PlanInput{
		Name:         c.name,
		Day:          c.day,
		Method:       c.method,
		AutoPay:      c.autoPay,
		Icon:         c.icon,
		CashbackType: core.CashbackType(c.cashbackType),
	}
	var err error
	if in.Amount, err = parseMoney(c.amount); err != nil {
		return in, err
	}
	switch in.CashbackType {
	case core.CashbackFixed:
		cents, err := parseMoney(c.cashback)
		if err != nil {
			return in, err
		}
		in.CashbackValue = decimal.NewFromInt(cents)
	case core.CashbackPercent:
		if in.CashbackValue, err = parseQuantity(c.cashback); err != nil {
			return in, err
		}
	}
	if c.campaignEnd != "" {
		if in.CampaignEndDate, err = core.ParseDate(c.campaignEnd); err != nil {
			return in, err
		}
	}
	return in, nil
}

type planAddCmd struct{ planFlags }

func (*planAddCmd) Name() string     { return "add" }
func (*planAddCmd) Synopsis() string { return "create a recurring plan" }
func (*planAddCmd) Usage() string {
	return `kasa plan add -name <name> -a <amount> -day <day> [-method <method>] [-cashback-type percent -cashback 5 -campaign-end <date>]

  Creates an active plan. Missed months since creation are charged the next
  time the ledger is opened.
`
}
func (c *planAddCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *planAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.amount == "" {
		return usage(f, "-name and -a are required")
	}
	in, err := c.input()
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		p, err := services.CreatePlan(st, in, now)
		if err != nil {
			return err
		}
		fmt.Printf("Plan eklendi: %s\n", p.ID)
		return nil
	})
}

type planEditCmd struct{ planFlags }

func (*planEditCmd) Name() string     { return "edit" }
func (*planEditCmd) Synopsis() string { return "replace the fields of a plan" }
func (*planEditCmd) Usage() string {
	return "kasa plan edit -name <name> -a <amount> -day <day> [flags] <id>\n"
}
func (c *planEditCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *planEditCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.name == "" || c.amount == "" {
		return usage(f, "plan id, -name and -a are required")
	}
	in, err := c.input()
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		_, err := services.UpdatePlan(st, core.ID(f.Arg(0)), in, now)
		return err
	})
}

type planActiveCmd struct {
	name   string
	active bool
}

func (c *planActiveCmd) Name() string { return c.name }
func (c *planActiveCmd) Synopsis() string {
	if c.active {
		return "resume a paused plan"
	}
	return "pause a plan and refund this month's charge"
}
func (c *planActiveCmd) Usage() string          { return "kasa plan " + c.name + " <id>\n" }
func (*planActiveCmd) SetFlags(*flag.FlagSet) {}

func (c *planActiveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "plan id is required")
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		_, err := services.SetPlanActive(ctx, st, core.ID(f.Arg(0)), c.active, now)
		return err
	})
}

type planDeleteCmd struct{}

func (*planDeleteCmd) Name() string           { return "delete" }
func (*planDeleteCmd) Synopsis() string       { return "delete a plan and refund this month's charge" }
func (*planDeleteCmd) Usage() string          { return "kasa plan delete <id>\n" }
func (*planDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *planDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "plan id is required")
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		_, err := services.DeletePlan(st, core.ID(f.Arg(0)), now)
		return err
	})
}

type planListCmd struct{}

func (*planListCmd) Name() string           { return "list" }
func (*planListCmd) Synopsis() string       { return "list plans with campaign status" }
func (*planListCmd) Usage() string          { return "kasa plan list\n" }
func (*planListCmd) SetFlags(*flag.FlagSet) {}

func (c *planListCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	return rt.print(rt.printer().Plans(ledger.State(), core.Today(ledger.Now())))
}
