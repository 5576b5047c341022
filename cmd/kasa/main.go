package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"kasa/internal/cli"
	"kasa/internal/log"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, "kasa")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	logLevel := flag.String("log", os.Getenv("LOG_LEVEL"), "log level (debug, info, warn, error)")
	raw := flag.Bool("raw", false, "print markdown without styling")
	flag.Parse()

	logger := cli.SetupLogger(*logLevel)
	ctx := log.NewContext(context.Background(), logger.WithComponent(log.ComponentCLI))
	rt := newRuntime(logger, *raw)
	status := commander.Execute(ctx, rt)
	rt.Close()
	os.Exit(int(status))
}

var commands = []subcommands.Command{
	expenseGroup(),
	cardGroup(),
	&payCmd{},
	planGroup(),
	incomeGroup(),
	walletGroup(),
	assetGroup(),
	backupGroup(),
	syncGroup(),
	&exportCmd{},
	&marketCmd{},
	&processCmd{},
	&monthCmd{},
	&settingsCmd{},
	&resetCmd{},
}
