package main

import (
	"context"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	dlog "dompet/internal/log"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/storage"
	"dompet/internal/worker"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", dlog.ComponentWorker))
	logger := cli.SetupLogger(cfg.LogLevel, dlog.ComponentWorker)
	cli.LogStartup(logger, "dompet-worker", cfg)

	flushSentry, err := cli.InitSentry(logger, cfg.SentryDSN, version)
	if err != nil {
		logger.Error("Sentry disabled", "error", err)
	}
	defer flushSentry()

	if cfg.DataBackend != "sqlite" {
		logger.Error("The sync worker needs the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	sheets, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		YearPrefix:      cfg.GoogleSheetYearPrefix,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		_ = repo.Close()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	// Without a queue the worker still mirrors through the periodic sweep.
	var (
		consumer   worker.Consumer
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			_ = repo.Close()
			os.Exit(1)
		}
		consumer = amqpClient
	} else {
		logger.Warn("AMQP_URL not set, relying on the periodic sweep only")
	}

	syncWorker := worker.NewSyncWorker(repo, sheets, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := syncWorker.Run(ctx, consumer, cfg.SyncInterval); err != nil {
		logger.Error("Sync worker stopped", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	if err := repo.Close(); err != nil {
		logger.Error("Repository close error", "error", err)
	}
	logger.Info("Worker stopped")
}
