// Package store defines the record store the services read from and write to.
// Implementations live in store/memory, storage (SQL) and sheets.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Order sorts transactions by date and categories by name.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Query holds optional equality filters. The zero value matches everything.
type Query struct {
	CategoryID *string
	Type       core.CategoryType // categories only
	ActiveOnly bool              // categories only
	Order      Order
}

// Ports for the record collections. Save inserts when the ID is empty or
// unknown and updates otherwise; it returns the stored record with its ID.
type (
	CategoryStore interface {
		ListCategories(ctx context.Context, ownerID string, q Query) ([]core.Category, error)
		GetCategory(ctx context.Context, ownerID, id string) (core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, ownerID, id string) error
	}

	IncomeStore interface {
		ListIncome(ctx context.Context, ownerID string, q Query) ([]core.Income, error)
		GetIncome(ctx context.Context, ownerID, id string) (core.Income, error)
		SaveIncome(ctx context.Context, in core.Income) (core.Income, error)
		DeleteIncome(ctx context.Context, ownerID, id string) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context, ownerID string, q Query) ([]core.Expense, error)
		GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
		SaveExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, ownerID, id string) error
	}

	// SettingsStore holds at most one record per owner. GetSettings returns
	// ErrNotFound when the owner has not configured any.
	SettingsStore interface {
		GetSettings(ctx context.Context, ownerID string) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) (core.Settings, error)
	}

	Store interface {
		CategoryStore
		IncomeStore
		ExpenseStore
		SettingsStore
		Close() error
	}
)
