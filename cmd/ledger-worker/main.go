package main

import (
	"context"
	"errors"
	"time"

	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/notify"
	"gastos/internal/services"
	"gastos/internal/sheets"
	"gastos/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "AMQP_URL is required for the ledger worker", errors.New("missing AMQP URL"))
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; the worker will see no API writes")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend", err)
	}
	if res.Publisher == nil {
		_ = res.Cleanup()
		cli.Fatal(logger, "AMQP broker unreachable", errors.New("no AMQP client"))
	}

	opts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentReport))}
	if res.Cache != nil {
		opts = append(opts, services.WithCache(res.Cache))
	}
	ledger := services.NewLedgerService(res.Repository, opts...)

	var notifier worker.OverBudgetNotifier
	if cfg.EmailEnabled() {
		notifier = notify.NewMailer(notify.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertEmailFrom,
			To:       cfg.AlertEmailTo,
		})
		logger.Info("Over-budget alerts enabled", "to", cfg.AlertEmailTo)
	} else {
		logger.Info("Email alerts disabled - no SMTP_HOST provided")
	}

	var exporter worker.PeriodExporter
	if cfg.SheetsEnabled() {
		e, err := sheets.NewExporter(context.Background(), sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			_ = res.Cleanup()
			cli.Fatal(logger, "Failed to initialize Google Sheets exporter", err)
		}
		exporter = e
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewLedgerWorker(ledger, res.Repository, notifier, exporter)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if err := w.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	go func() {
		err := res.Publisher.ConsumeLedgerEvents(ctx, w.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ledger worker stopped")
}
