package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"kasa/internal/backup"
	"kasa/internal/cli"
	"kasa/internal/report"
	"kasa/internal/services"
	"kasa/internal/sheets"
	sheetsmemory "kasa/internal/sheets/memory"
	"kasa/internal/storage/memory"
)

func syncGroup() subcommands.Command {
	return &group{
		name:     "sync",
		synopsis: "exchange the ledger with the sync file and the spreadsheet",
		verbs:    []subcommands.Command{&syncPushCmd{}, &syncPullCmd{}, &syncStatusCmd{}, &syncSheetCmd{}},
	}
}

type syncPushCmd struct {
	dryRun bool
}

func (*syncPushCmd) Name() string     { return "push" }
func (*syncPushCmd) Synopsis() string { return "write the sync file and append new expenses to the sheet" }
func (*syncPushCmd) Usage() string {
	return `kasa sync push [-dry-run]

  Runs one sync cycle. With -dry-run the cycle runs against a copy of the
  ledger and an in-memory sheet, and only reports what it would export.
`
}
func (c *syncPushCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "report without writing anything")
}

func (c *syncPushCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	cfg := rt.config()
	store := rt.storeOnly()

	if c.dryRun {
		values, err := store.Load(ctx)
		if err != nil {
			return fail(err)
		}
		sheet := sheetsmemory.New()
		pc := services.DefaultSyncProcessorConfig()
		pc.BatchSize = cfg.SyncBatchSize
		cycle, err := services.NewSyncProcessor(memory.NewWith(values), nil, sheet, pc).RunOnce(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%d harcama aktarılacak, %d düzenli ödeme işlenecek\n", cycle.Exported, len(cycle.Recurring.Materialized))
		return rt.print(rt.printer().Expenses("Aktarılacak Harcamalar", sheet.Rows()))
	}

	writer, err := cli.InitSheets(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	cycle, err := cli.NewSyncProcessor(cfg, store, writer).RunOnce(ctx)
	if err != nil {
		return fail(err)
	}
	if cycle.SnapshotPath != "" {
		fmt.Printf("Senkron dosyası: %s\n", cycle.SnapshotPath)
	}
	fmt.Printf("%d harcama tabloya aktarıldı\n", cycle.Exported)
	return subcommands.ExitSuccess
}

type syncPullCmd struct{}

func (*syncPullCmd) Name() string     { return "pull" }
func (*syncPullCmd) Synopsis() string { return "load the sync file into the ledger" }
func (*syncPullCmd) Usage() string    { return "kasa sync pull\n" }
func (*syncPullCmd) SetFlags(*flag.FlagSet) {}

func (c *syncPullCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	cfg := rt.config()
	if cfg.SyncFile == "" {
		return fail(fmt.Errorf("KASA_SYNC_FILE is not set"))
	}
	pulled, err := backup.NewFileTransport(cfg.SyncFile).Pull(ctx, rt.storeOnly())
	if err != nil {
		return fail(err)
	}
	if pulled.Keys == 0 {
		fmt.Println("Senkron dosyası boş, değişiklik yok")
		return subcommands.ExitSuccess
	}
	if _, err := rt.open(ctx); err != nil {
		return fail(err)
	}
	fmt.Printf("%d anahtar yüklendi\n", pulled.Keys)
	return rt.print(report.Sync(pulled.LastSync, rt.ledger.Now()))
}

type syncStatusCmd struct{}

func (*syncStatusCmd) Name() string           { return "status" }
func (*syncStatusCmd) Synopsis() string       { return "show when the ledger was last synced" }
func (*syncStatusCmd) Usage() string          { return "kasa sync status\n" }
func (*syncStatusCmd) SetFlags(*flag.FlagSet) {}

func (c *syncStatusCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	return rt.print(report.Sync(ledger.State().LastSync, ledger.Now()))
}

type syncSheetCmd struct {
	month string
}

func (*syncSheetCmd) Name() string     { return "sheet" }
func (*syncSheetCmd) Synopsis() string { return "read a month back from the spreadsheet" }
func (*syncSheetCmd) Usage() string    { return "kasa sync sheet [-month YYYY-MM]\n" }
func (c *syncSheetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month (defaults to the current one)")
}

func (c *syncSheetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	writer, err := cli.InitSheets(ctx, rt.config())
	if err != nil {
		return fail(err)
	}
	reader, ok := writer.(sheets.MonthReader)
	if !ok {
		return fail(fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set"))
	}
	ym, err := monthFlag(c.month, time.Now())
	if err != nil {
		return usage(f, err.Error())
	}
	ov, err := reader.ReadMonthOverview(ctx, ym)
	if err != nil {
		return fail(err)
	}
	return rt.print(rt.printer().Month(ov))
}
