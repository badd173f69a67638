package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/notify"
	"gastos/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentRenewal)
	logger.Info("Starting renewal-worker", "schedule", cfg.RenewalSchedule, "remind_days", cfg.RenewalRemindDays)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	// the worker writes straight to storage; no cache or events needed
	bcfg.CacheType = backend.NoCache
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend", err)
	}

	var notifier services.RenewalNotifier
	if cfg.EmailEnabled() {
		notifier = notify.NewMailer(notify.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertEmailFrom,
			To:       cfg.AlertEmailTo,
		})
	} else {
		logger.Info("Email reminders disabled - no SMTP_HOST provided")
	}

	processor := services.NewRenewalProcessor(res.Repository, notifier, cfg.RenewalRemindDays, services.SystemClock)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	run := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		start := time.Now()
		result, err := processor.ProcessRenewals(runCtx)
		if err != nil {
			logger.Error("Renewal run failed", log.FieldError, err, log.FieldOperation, log.OpRenew)
			return
		}
		logger.Info("Renewal run complete",
			"owners", result.Owners,
			"refreshed", result.Refreshed,
			"reminded", result.Reminded,
			log.FieldDurationHuman, time.Since(start).String())
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.RenewalSchedule, run); err != nil {
		_ = res.Cleanup()
		cli.Fatal(logger, "Invalid renewal schedule", err, "schedule", cfg.RenewalSchedule)
	}

	// catch up on anything due since the last run
	run()
	c.Start()

	cli.WaitForShutdown(ctx, done)

	<-c.Stop().Done()
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
	logger.Info("Renewal worker stopped")
}
