package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kasa/internal/amqp"
	"kasa/internal/cli"
	"kasa/internal/log"
	"kasa/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting kasa-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.InitStore(logger, cfg.DBPath)

	initCtx := log.NewContext(context.Background(), logger)
	sheetsWriter, err := cli.InitSheets(initCtx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if sheetsWriter == nil {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// the worker only consumes; it never publishes its own commits
	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, polling only", log.FieldError, err)
			consumer = nil
		}
	}

	processor := cli.NewSyncProcessor(cfg, store, sheetsWriter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Warn("Sync processor did not stop cleanly", log.FieldError, err)
		}
		if consumer != nil {
			consumer.Close()
		}
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	})

	w := worker.NewSyncWorker(processor, cfg.RecurringInterval)
	if err := w.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", log.FieldError, err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Sync processor running",
		"interval", cfg.RecurringInterval,
		log.FieldPath, cfg.DBPath)

	if consumer != nil {
		go func() {
			if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on the polling interval")
	}

	cli.WaitForShutdown(ctx, done)
}
