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

func incomeGroup() subcommands.Command {
	return &group{
		name:     "income",
		synopsis: "manage recurring income such as salary",
		verbs: []subcommands.Command{
			&incomeAddCmd{}, &incomeDeleteCmd{},
			&incomeActiveCmd{name: "pause"}, &incomeActiveCmd{name: "resume", active: true},
		},
	}
}

type incomeAddCmd struct {
	name, amount string
	day          int
}

func (*incomeAddCmd) Name() string     { return "add" }
func (*incomeAddCmd) Synopsis() string { return "register monthly income" }
func (*incomeAddCmd) Usage() string {
	return "kasa income add -name <name> -a <amount> -day <day>\n"
}

func (c *incomeAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "income name")
	f.StringVar(&c.amount, "a", "", "monthly amount")
	f.IntVar(&c.day, "day", 1, "day of month it arrives")
}

func (c *incomeAddCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.amount == "" {
		return usage(f, "-name and -a are required")
	}
	amount, err := parseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		inc, err := services.AddIncome(st, services.IncomeInput{Name: c.name, Amount: amount, Day: c.day})
		if err != nil {
			return err
		}
		fmt.Printf("Gelir eklendi: %s\n", inc.ID)
		return nil
	})
}

type incomeDeleteCmd struct{}

func (*incomeDeleteCmd) Name() string           { return "delete" }
func (*incomeDeleteCmd) Synopsis() string       { return "delete recurring income" }
func (*incomeDeleteCmd) Usage() string          { return "kasa income delete <id>\n" }
func (*incomeDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *incomeDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "income id is required")
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		return services.DeleteIncome(st, core.ID(f.Arg(0)))
	})
}

type incomeActiveCmd struct {
	name   string
	active bool
}

func (c *incomeActiveCmd) Name() string { return c.name }
func (c *incomeActiveCmd) Synopsis() string {
	if c.active {
		return "resume paused income"
	}
	return "stop crediting income"
}
func (c *incomeActiveCmd) Usage() string        { return "kasa income " + c.name + " <id>\n" }
func (*incomeActiveCmd) SetFlags(*flag.FlagSet) {}

func (c *incomeActiveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "income id is required")
	}
	return update(ctx, args, func(st *core.State, _ time.Time) error {
		_, err := services.SetIncomeActive(st, core.ID(f.Arg(0)), c.active)
		return err
	})
}
