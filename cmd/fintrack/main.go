package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fintrack:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, nil)

	be, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	publisher, err := cli.ConnectAMQP(cfg, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		// Ledger writes still succeed without events; the worker just sees fewer of them.
		logger.Error("AMQP unavailable, continuing without ledger events", log.FieldError, err.Error())
		publisher = nil
	}
	if publisher != nil {
		defer publisher.Close()
	}

	svc := cli.BuildServices(cfg, be, publisher, logger)
	defer svc.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Summaries:          svc.Summaries,
		Ledger:             svc.Ledger,
		Ready:              be.Ping,
		Logger:             logger,
		Registry:           registry,
		DisplayLocale:      cfg.DisplayLocale,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, log.FieldBackend, be.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on port %s: %w", cfg.Port, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
