// Package backend opens the record store selected by DATA_BACKEND.
package backend

import (
	"context"

	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is an opened store plus the function that closes it.
type BackendResult struct {
	Store   store.Store
	Type    BackendType
	Cleanup CleanupFunc
}

// Ping checks the backend when it supports it; stores without a remote
// dependency are always ready.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath   string
	PostgresDSN    string
	MemorySeedFile string
	Sheets         sheets.Config
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// SQL reports whether the backend is schema-managed by migrations.
func (bt BackendType) SQL() bool {
	return bt == SQLiteBackend || bt == PostgresBackend
}
