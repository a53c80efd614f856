package main

import (
	"context"
	"errors"
	"os"
	"time"

	"asesor/internal/amqp"
	"asesor/internal/backend"
	"asesor/internal/cli"
	"asesor/internal/config"
	"asesor/internal/digest"
	"asesor/internal/services"
	gsheet "asesor/internal/sheets/google"
	"asesor/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting asesor-worker")

	cfg := config.Load()
	if err := errors.Join(cfg.Validate(), cfg.ValidateWorker()); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	engine := cli.LoadEngine(logger, cfg.PolicyFile)

	// The worker only consumes events; it never publishes them.
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendConfig.AMQPURL = ""
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	st := result.Store
	exporter := worker.NewExportWorker(st, sheetsClient, logger)
	advisor := services.NewAdvisorService(st, st, engine, nil, logger)

	var scheduler *digest.Scheduler
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop(ctx)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if cfg.DigestCron != "" {
		scheduler = digest.NewScheduler(ctx, st, advisor, logger)
		if err := scheduler.Register(cfg.DigestCron); err != nil {
			logger.Error("Failed to schedule daily digest", "error", err, "cron", cfg.DigestCron)
			os.Exit(1)
		}
		scheduler.Start()
	} else {
		logger.Info("Daily digest disabled - no DIGEST_CRON provided")
	}

	err = amqpClient.ConsumeTransactionRecorded(ctx, cfg.ExportPrefetch, exporter.HandleTransactionRecorded)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
