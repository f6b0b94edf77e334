package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/cli"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/memory"
	"ledger/internal/worker"
)

const sessionPurgeInterval = time.Hour

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))
	logger.Info("Starting ledger-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	exporter, err := newExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", applog.FieldError, err)
		os.Exit(1)
	}
	exportWorker := worker.NewExportWorker(repo, exporter, cfg.ExportBatchSize, logger)
	registration := services.NewRegistrationService(repo, auth.NewHasher(cfg.BcryptCost), cfg.SessionTTL, cfg.DefaultCurrency, logger)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// catch up on records written while the worker was down
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeRecordEvents(gctx, exportWorker.HandleRecordEvent)
		})
	}
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval)
	})
	g.Go(func() error {
		return purgeSessions(gctx, registration, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// newExporter returns the Google Sheets client when export is enabled and
// an in-memory sink otherwise, so record sync state still advances.
func newExporter(cfg *config.Config, logger *applog.Logger) (sheets.Exporter, error) {
	if !cfg.ExportEnabled {
		logger.Info("Sheet export disabled - using in-memory exporter")
		return memory.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}

func purgeSessions(ctx context.Context, registration *services.RegistrationService, logger *applog.Logger) error {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := registration.PurgeSessions(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Session purge failed", applog.FieldError, err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "Expired sessions purged", "count", n)
			}
		}
	}
}
