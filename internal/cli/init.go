// Package cli provides common initialization shared by cmd/kasa and
// cmd/kasa-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kasa/internal/amqp"
	"kasa/internal/backup"
	"kasa/internal/config"
	"kasa/internal/log"
	"kasa/internal/services"
	"kasa/internal/sheets"
	"kasa/internal/sheets/google"
	"kasa/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// sets it as the default logger. Logs go to stderr so command output on
// stdout stays clean.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the SQLite key-value store.
// Returns the store or exits the process on failure.
func InitStore(logger *log.Logger, dbPath string) *storage.SQLiteKV {
	kv, err := storage.NewSQLiteKV(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite store", log.FieldError, err, log.FieldPath, dbPath)
		os.Exit(1)
	}
	return kv
}

// InitPublisher connects to the broker when AMQP_URL is set. A nil client
// means notifications are off.
func InitPublisher(ctx context.Context, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentAMQP).InfoContext(ctx, "Connected to AMQP broker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// InitSheets builds the spreadsheet writer when GOOGLE_SPREADSHEET_ID is
// set. A nil writer means the export is off.
func InitSheets(ctx context.Context, cfg *config.Config) (sheets.ExpenseWriter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewSyncProcessor wires the file transport and the spreadsheet into a
// processor. sheetsWriter may be nil.
func NewSyncProcessor(cfg *config.Config, store storage.KV, sheetsWriter sheets.ExpenseWriter) *services.SyncProcessor {
	pc := services.DefaultSyncProcessorConfig()
	pc.PollInterval = cfg.RecurringInterval
	pc.BatchSize = cfg.SyncBatchSize
	var snapshots services.SnapshotWriter
	if cfg.SyncFile != "" {
		snapshots = backup.NewFileTransport(cfg.SyncFile)
	}
	return services.NewSyncProcessor(store, snapshots, sheetsWriter, pc)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), logger))
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
