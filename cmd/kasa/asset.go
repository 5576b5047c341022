package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"kasa/internal/core"
	"kasa/internal/log"
	"kasa/internal/market"
	"kasa/internal/services"
)

func assetGroup() subcommands.Command {
	return &group{
		name:     "asset",
		synopsis: "record investment trades and show the portfolio",
		verbs: []subcommands.Command{
			&tradeCmd{name: "buy", tradeType: core.TradeBuy},
			&tradeCmd{name: "sell", tradeType: core.TradeSell},
			&tradeEditCmd{}, &tradeDeleteCmd{}, &portfolioCmd{},
		},
	}
}

type tradeFlags struct {
	asset, quantity, price, date string
}

func (c *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.asset, "asset", "gram-altin", "asset key (gram-altin, usd, eur, btc)")
	f.StringVar(&c.quantity, "q", "", "quantity")
	f.StringVar(&c.price, "p", "", "unit price")
	f.StringVar(&c.date, "d", "", "trade date (defaults to today)")
}

func (c *tradeFlags) input(tt core.TradeType, now time.Time) (services.TradeInput, error) {
	in := services.TradeInput{Asset: c.asset, TradeType: tt}
	var err error
	if in.Quantity, err = parseQuantity(c.quantity); err != nil {
		return in, err
	}
	if in.Price, err = parseMoney(c.price); err != nil {
		return in, err
	}
	if in.Date, err = parseDate(c.date, now); err != nil {
		return in, err
	}
	return in, nil
}

type tradeCmd struct {
	tradeFlags
	name      string
	tradeType core.TradeType
}

func (c *tradeCmd) Name() string { return c.name }
func (c *tradeCmd) Synopsis() string {
	if c.tradeType == core.TradeSell {
		return "sell an asset into the wallet"
	}
	return "buy an asset from the wallet"
}
func (c *tradeCmd) Usage() string {
	return "kasa asset " + c.name + " -asset <key> -q <quantity> -p <unit price> [-d <date>]\n"
}
func (c *tradeCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.quantity == "" || c.price == "" {
		return usage(f, "-q and -p are required")
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		in, err := c.input(c.tradeType, now)
		if err != nil {
			return err
		}
		tr, err := services.RecordTrade(st, in, now)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s: %s\n", tr.Quantity.String(), services.AssetUnit(tr.Asset), services.AssetLabel(tr.Asset), tr.ID)
		return nil
	})
}

type tradeEditCmd struct {
	tradeFlags
	sell bool
}

func (*tradeEditCmd) Name() string     { return "edit" }
func (*tradeEditCmd) Synopsis() string { return "replace a recorded trade" }
func (*tradeEditCmd) Usage() string {
	return "kasa asset edit -asset <key> -q <quantity> -p <unit price> [-sell] [-d <date>] <id>\n"
}
func (c *tradeEditCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.BoolVar(&c.sell, "sell", false, "the trade is a sale")
}

func (c *tradeEditCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.quantity == "" || c.price == "" {
		return usage(f, "trade id, -q and -p are required")
	}
	tt := core.TradeBuy
	if c.sell {
		tt = core.TradeSell
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		in, err := c.input(tt, now)
		if err != nil {
			return err
		}
		_, err = services.EditTrade(st, core.ID(f.Arg(0)), in, now)
		return err
	})
}

type tradeDeleteCmd struct{}

func (*tradeDeleteCmd) Name() string           { return "delete" }
func (*tradeDeleteCmd) Synopsis() string       { return "delete a trade and reverse its wallet entry" }
func (*tradeDeleteCmd) Usage() string          { return "kasa asset delete <id>\n" }
func (*tradeDeleteCmd) SetFlags(*flag.FlagSet) {}

func (c *tradeDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "trade id is required")
	}
	return update(ctx, args, func(st *core.State, now time.Time) error {
		_, err := services.DeleteTrade(st, core.ID(f.Arg(0)), now)
		return err
	})
}

type portfolioCmd struct {
	offline bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "value holdings at market prices" }
func (*portfolioCmd) Usage() string    { return "kasa asset portfolio [-offline]\n" }
func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "skip fetching quotes and value at cost")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	var quotes market.Quotes
	if !c.offline {
		quotes = fetchQuotes(ctx, rt)
	}
	return rt.print(rt.printer().Portfolio(services.Positions(ledger.State()), quotes))
}

// fetchQuotes returns whatever quotes could be had; failures are logged and
// the result is marked as fallback.
func fetchQuotes(ctx context.Context, rt *runtime) market.Quotes {
	cfg := rt.config()
	client := market.NewClient(market.WithTTL(cfg.MarketCacheTTL))
	ctx, cancel := context.WithTimeout(ctx, cfg.MarketTimeout)
	defer cancel()
	q, err := client.Quotes(ctx)
	if err != nil {
		rt.logger.WarnContext(ctx, "Some market quotes are unavailable", log.FieldError, err)
	}
	return q
}
