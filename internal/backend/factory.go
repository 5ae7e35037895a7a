package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/sheets"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLBackend(config.Type, func() (*storage.Repository, error) {
			return storage.NewSQLiteRepository(config.SQLiteDBPath)
		}, "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		return f.createSQLBackend(config.Type, func() (*storage.Repository, error) {
			return storage.NewPostgresRepository(config.PostgresDSN)
		})
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLBackend(bt BackendType, open func() (*storage.Repository, error), attrs ...any) (*BackendResult, error) {
	repo, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", bt, err)
	}

	f.logger.Info("Initialized SQL backend", append([]any{"backend", bt.String()}, attrs...)...)
	return &BackendResult{Store: repo, Type: bt, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := sheets.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
	}
	if err := st.EnsureHeaders(ctx); err != nil {
		f.logger.Warn("Failed to write sheet headers", "error", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.Sheets.SpreadsheetID)
	return &BackendResult{Store: st, Type: SheetsBackend, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.MemorySeedFile == "" {
		f.logger.Info("Initialized memory backend")
		st := memory.New()
		return &BackendResult{Store: st, Type: MemoryBackend, Cleanup: st.Close}, nil
	}

	st, err := memory.NewFromFile(ctx, config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)
	return &BackendResult{Store: st, Type: MemoryBackend, Cleanup: st.Close}, nil
}
