package main

import (
	"context"
	"errors"
	"os"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/cli"
	"subtrack/internal/config"
	applog "subtrack/internal/log"
	"subtrack/internal/services"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/worker"
)

const (
	shutdownTimeout   = 30 * time.Second
	reconcileInterval = time.Hour
	consumeRetryDelay = 5 * time.Second
)

func main() {
	_ = cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting sheets-sync")

	cfg := config.Load()
	if err := errors.Join(cfg.Validate(), cfg.ValidateSheetsMirror()); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	ctx := context.Background()
	credentialsFile := cfg.GoogleServiceAccountFile
	if credentialsFile == "" {
		credentialsFile = cfg.GoogleApplicationDefaults
	}
	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: credentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := mirror.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare worksheet", "error", err, "sheet", cfg.GoogleSheetName)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror ready", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPReminderQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, mirror)
	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		return errors.Join(processor.Stop(ctx), client.Close(), repo.Close())
	})

	// Catch up on whatever changed while the worker was down.
	if err := syncWorker.StartupSyncCheck(shutdownCtx, cfg.SyncBatchSize); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	go func() {
		for {
			err := client.ConsumeSubscriptionChanged(shutdownCtx, syncWorker.HandleChange)
			if shutdownCtx.Err() != nil {
				return
			}
			logger.Error("Message consumption stopped, retrying", "error", err, "delay", consumeRetryDelay)
			select {
			case <-shutdownCtx.Done():
				return
			case <-time.After(consumeRetryDelay):
			}
		}
	}()

	if err := processor.Start(shutdownCtx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	go func() {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdownCtx.Done():
				return
			case <-ticker.C:
				removed, err := syncWorker.Reconcile(shutdownCtx)
				if err != nil {
					logger.Error("Periodic reconcile failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("Removed orphaned rows", "count", removed)
				}
			}
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Sheets sync stopped")
}
