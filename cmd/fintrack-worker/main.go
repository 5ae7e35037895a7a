package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fintrack-worker:", err)
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
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required for the worker")
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)
	logger.Info("Starting fintrack-worker")

	be, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer be.Cleanup()

	client, err := cli.ConnectAMQP(cfg, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		return fmt.Errorf("connect amqp: %w", err)
	}
	defer client.Close()

	// The worker only reads; it never publishes its own events.
	svc := cli.BuildServices(cfg, be, nil, logger)
	defer svc.Close()

	alerts := worker.NewAlertWorker(svc.Summaries, cfg.RunwayAlertDays, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerEvents(gctx, alerts.Handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := be.Ping(gctx); err != nil {
					logger.Warn("Backend health check failed", log.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume ledger events: %w", err)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
	return nil
}
