// Package cli provides the bootstrap shared by cmd/fintrack, cmd/fintrack-worker
// and cmd/fintrack-cli.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// LoadEnvFile loads .env files for local development. A missing file is not
// an error; a malformed one is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if w != nil {
		lc.Writer = w
	}
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend creates the record store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	return factory.CreateBackend(ctx, bc)
}

// SummaryCache builds the summary LRU and a manager sweeping it once per TTL.
// The caller owns the manager and must Stop it.
func SummaryCache(cfg *config.Config, logger *log.Logger) (*cache.LRUCache[services.Report], *cache.Manager) {
	c := cache.NewLRUCache[services.Report](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	m := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	m.Register(c)
	m.StartCleanup(cfg.SummaryCacheTTL)
	return c, m
}

// Services bundles the application services over one store.
type Services struct {
	Summaries *services.SummaryService
	Ledger    *services.LedgerService
	Cache     *cache.Manager
}

// Close stops background cache maintenance.
func (s *Services) Close() {
	if s.Cache != nil {
		s.Cache.Stop()
	}
}

// BuildServices wires the summary and ledger services. publisher may be nil.
func BuildServices(cfg *config.Config, be *backend.BackendResult, publisher *amqp.Client, logger *log.Logger) *Services {
	summaryCache, manager := SummaryCache(cfg, logger)
	summaries := services.NewSummaryService(be.Store, finance.NewEngine(nil), summaryCache, logger.WithComponent(log.ComponentSummary))

	// A nil *amqp.Client must not become a non-nil interface.
	var pub services.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	ledger := services.NewLedgerService(be.Store, summaries, pub, logger.WithComponent(log.ComponentLedger))
	return &Services{Summaries: summaries, Ledger: ledger, Cache: manager}
}

// ConnectAMQP dials the broker when AMQP_URL is set and returns nil otherwise.
func ConnectAMQP(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// then runs with timeout, and done is closed once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return shutdownOn(sigChan, logger, timeout, cleanup)
}

func shutdownOn(sigChan <-chan os.Signal, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
