package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"gastos/internal/backend"
	"gastos/internal/cli"
	apphttp "gastos/internal/http"
	"gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a signed API token for this owner and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if cfg.JWTSecret == "" {
		cli.Fatal(logger, "JWT_SECRET is required to serve the API", errors.New("missing JWT secret"))
	}

	if *issueFor != "" {
		token, err := apphttp.NewAuthenticator(cfg.JWTSecret).IssueToken(*issueFor, *tokenTTL)
		if err != nil {
			cli.Fatal(logger, "Failed to issue token", err)
		}
		fmt.Println(token)
		return
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend", err, "backend", cfg.DataBackend)
	}

	opts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentLedger))}
	if res.Cache != nil {
		opts = append(opts, services.WithCache(res.Cache))
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	ledger := services.NewLedgerService(res.Repository, opts...)

	serverOpts := []apphttp.Option{apphttp.WithLogger(logger)}
	for name, check := range res.Checks {
		serverOpts = append(serverOpts, apphttp.WithReadinessCheck(name, apphttp.ReadinessCheck(check)))
	}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTSecret:          cfg.JWTSecret,
	}, ledger, serverOpts...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting gastos server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache", cfg.CacheBackend,
		"events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
