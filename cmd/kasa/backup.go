package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"kasa/internal/backup"
)

func backupGroup() subcommands.Command {
	return &group{
		name:     "backup",
		synopsis: "write or restore a JSON backup of the ledger",
		verbs:    []subcommands.Command{&backupExportCmd{}, &backupImportCmd{}},
	}
}

type backupExportCmd struct {
	dir string
}

func (*backupExportCmd) Name() string     { return "export" }
func (*backupExportCmd) Synopsis() string { return "write the ledger to a dated backup file" }
func (*backupExportCmd) Usage() string    { return "kasa backup export [-dir <directory>]\n" }
func (c *backupExportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", ".", "directory for the backup file")
}

func (c *backupExportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	rt := runtimeOf(args)
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	now := ledger.Now()
	doc, err := backup.Serialize(ledger.State(), now)
	if err != nil {
		return fail(err)
	}
	data, err := doc.Marshal()
	if err != nil {
		return fail(err)
	}
	path := filepath.Join(c.dir, backup.FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fail(fmt.Errorf("write backup: %w", err))
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}

type backupImportCmd struct{}

func (*backupImportCmd) Name() string     { return "import" }
func (*backupImportCmd) Synopsis() string { return "restore a backup file, replacing the ledger" }
func (*backupImportCmd) Usage() string {
	return `kasa backup import <file>

  Replaces every ledger key present in the file. Legacy backups with
  fractional amounts are converted when the ledger is next opened.
`
}
func (*backupImportCmd) SetFlags(*flag.FlagSet) {}

func (c *backupImportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(f, "backup file is required")
	}
	rt := runtimeOf(args)
	if err := backup.ImportFile(ctx, rt.storeOnly(), f.Arg(0), time.Now()); err != nil {
		return fail(err)
	}
	ledger, err := rt.open(ctx)
	if err != nil {
		return fail(err)
	}
	st := ledger.State()
	fmt.Printf("Yedek yüklendi: %d harcama, %d kart, %d plan\n", len(st.Expenses), len(st.Cards), len(st.RecurringPlans))
	return subcommands.ExitSuccess
}
