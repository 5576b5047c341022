package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/subcommands"

	"kasa/internal/core"
	"kasa/internal/export"
	"kasa/internal/services"
)

type exportCmd struct {
	format, out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export expenses for spreadsheets" }
func (*exportCmd) Usage() string {
	return `kasa export [-format tsv|csv|xlsx|yaml] [-o <file or directory>]

  tsv pastes into Google Sheets, csv opens in Excel, xlsx holds expenses and
  wallet entries on separate sheets, yaml is a readable dump. Use -o - for
  standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", string(export.FormatExcelCSV), "output format")
	f.StringVar(&c.out, "o", ".", "output file or directory")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return usage(f, err.Error())
	}
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	now := ledger.Now()

	var w io.Writer = os.Stdout
	path := "-"
	if c.out != "-" {
		path = c.out
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, export.FileName(format, now))
		}
		file, err := os.Create(path)
		if err != nil {
			return fail(fmt.Errorf("create export file: %w", err))
		}
		defer file.Close()
		w = file
	}
	if err := export.Write(w, format, ledger.State(), now); err != nil {
		return fail(err)
	}
	if path != "-" {
		fmt.Fprintln(os.Stderr, path)
	}
	return subcommands.ExitSuccess
}

type marketCmd struct{}

func (*marketCmd) Name() string           { return "market" }
func (*marketCmd) Synopsis() string       { return "show current gold, currency and bitcoin prices" }
func (*marketCmd) Usage() string          { return "kasa market\n" }
func (*marketCmd) SetFlags(*flag.FlagSet) {}

func (c *marketCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	q := fetchQuotes(ctx, rt)
	keys := make([]string, 0, len(q.Prices))
	for k := range q.Prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := rt.printer()
	var b strings.Builder
	b.WriteString("# Piyasa\n\n| Varlık | Fiyat |\n|---|---:|\n")
	for _, k := range keys {
		cents, _ := q.MinorUnits(k)
		fmt.Fprintf(&b, "| %s | %s |\n", services.AssetLabel(k), p.Formatter.Format(cents))
	}
	if q.Fallback {
		b.WriteString("\n_Bazı fiyatlar alınamadı, son bilinen değerler gösteriliyor._\n")
	}
	return rt.print(b.String())
}

type processCmd struct{}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "charge due recurring plans and credit income" }
func (*processCmd) Usage() string {
	return `kasa process

  Opening the ledger already does this; process reports what was done.
`
}
func (*processCmd) SetFlags(*flag.FlagSet) {}

func (c *processCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	rep, err := ledger.Process(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%d ödeme, %d gelir işlendi, %d ödeme limit yetersizliğinden atlandı\n",
		len(rep.Materialized), len(rep.Income), rep.Skipped)
	return subcommands.ExitSuccess
}

type monthCmd struct {
	month string
}

func (*monthCmd) Name() string     { return "month" }
func (*monthCmd) Synopsis() string { return "summarize a month's spending" }
func (*monthCmd) Usage() string    { return "kasa month [-month YYYY-MM]\n" }
func (c *monthCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month (defaults to the current one)")
}

func (c *monthCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	ym, err := monthFlag(c.month, ledger.Now())
	if err != nil {
		return usage(f, err.Error())
	}
	st := ledger.State()
	p := rt.printer()
	md := p.Month(core.SummarizeMonth(st.Expenses, ym))
	md += fmt.Sprintf("\n**Düzenli ödemeler:** %s\n", p.Formatter.Format(services.MonthlyCommitment(st, ym)))
	return rt.print(md)
}

type settingsCmd struct {
	privacy, dark       string
	method, category    string
	dropMethod, dropCat string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "change preferences, methods and categories" }
func (*settingsCmd) Usage() string {
	return `kasa settings [-privacy on|off] [-dark on|off] [-add-method <name>] [-add-category <name>]

  Without flags prints the current settings.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.privacy, "privacy", "", "hide amounts in reports (on|off)")
	f.StringVar(&c.dark, "dark", "", "dark theme for the browser app (on|off)")
	f.StringVar(&c.method, "add-method", "", "add a payment method")
	f.StringVar(&c.category, "add-category", "", "add a category")
	f.StringVar(&c.dropMethod, "remove-method", "", "remove a payment method")
	f.StringVar(&c.dropCat, "remove-category", "", "remove a category")
}

func onOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q: want on or off", s)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if !core.NamesMatch(s, v) {
			out = append(out, s)
		}
	}
	return out
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	status := update(ctx, args, func(st *core.State, _ time.Time) error {
		if c.privacy != "" {
			v, err := onOff(c.privacy)
			if err != nil {
				return err
			}
			st.IsPrivacyMode = v
		}
		if c.dark != "" {
			v, err := onOff(c.dark)
			if err != nil {
				return err
			}
			st.IsDark = v
		}
		if c.method != "" {
			st.Methods = core.AddUnique(st.Methods, c.method)
		}
		if c.category != "" {
			st.Categories = core.AddUnique(st.Categories, c.category)
		}
		if c.dropMethod != "" {
			st.Methods = remove(st.Methods, c.dropMethod)
		}
		if c.dropCat != "" {
			st.Categories = remove(st.Categories, c.dropCat)
		}
		return nil
	})
	if status != subcommands.ExitSuccess {
		return status
	}
	st := runtimeOf(args).ledger.State()
	fmt.Printf("Gizlilik: %t\nKaranlık tema: %t\nYöntemler: %s\nKategoriler: %s\n",
		st.IsPrivacyMode, st.IsDark, strings.Join(st.Methods, ", "), strings.Join(st.Categories, ", "))
	return subcommands.ExitSuccess
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "erase the whole ledger" }
func (*resetCmd) Usage() string {
	return `kasa reset -yes

  Deletes every expense, card, plan and wallet entry. Take a backup first.
`
}
func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm the reset")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return usage(f, "refusing to reset without -yes")
	}
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	if err := ledger.Reset(ctx); err != nil {
		return fail(err)
	}
	fmt.Println("Tüm veriler silindi")
	return subcommands.ExitSuccess
}

