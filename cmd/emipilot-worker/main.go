package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"emipilot/internal/amqp"
	"emipilot/internal/backend"
	"emipilot/internal/cli"
	"emipilot/internal/config"
	emilog "emipilot/internal/log"
	gsheet "emipilot/internal/sheets/google"
	"emipilot/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, emilog.ComponentWorker)
	logger.Info("Starting emipilot-worker")

	cli.MustValidate(logger, cfg.ValidateWorker)
	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The worker needs a shared database; memory backend is not supported")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// The worker only reads, so it opens the store without a publisher.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", emilog.FieldError, err)
		os.Exit(1)
	}
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", emilog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", emilog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", emilog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(result.Store, sheetsClient, cfg.InstanceID, logger)

	// Catch up on anything written while the worker was down.
	if err := mirror.Sync(ctx); err != nil {
		logger.Error("Startup sync failed", emilog.FieldError, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := amqpClient.ConsumeWithRetry(ctx, mirror.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", emilog.FieldError, err)
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		mirror.RunPeriodic(ctx, cfg.SyncInterval)
	}()

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("Worker shutdown complete", "last_sync", mirror.LastSync())
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
