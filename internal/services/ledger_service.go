package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// ErrUnknownCategory is returned when a new or edited transaction references
// a category the owner does not have.
var ErrUnknownCategory = errors.New("unknown category")

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// Invalidator drops memoized results for an owner.
type Invalidator interface {
	Invalidate(ownerID string)
}

// LedgerService validates and persists ledger records. Every successful
// mutation invalidates the owner's cached summaries and publishes a
// LedgerEvent when a publisher is configured.
type LedgerService struct {
	store       store.Store
	invalidator Invalidator
	publisher   EventPublisher
	logger      *log.Logger
}

// NewLedgerService builds the service. invalidator and publisher may be nil.
func NewLedgerService(st store.Store, invalidator Invalidator, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.FromDefault(log.ComponentLedger)
	}
	return &LedgerService{store: st, invalidator: invalidator, publisher: publisher, logger: logger}
}

func (s *LedgerService) changed(ctx context.Context, ownerID string, kind amqp.EntityKind, action amqp.Action, id string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ownerID)
	}

	fields := log.NewFields().WithOwner(ownerID).WithEntity(string(kind), id).WithOperation(string(action))
	s.logger.InfoContext(ctx, "Ledger updated", fields.ToSlice()...)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(ownerID, kind, action, id)); err != nil {
		// Do not fail the request, the record is saved.
		s.logger.ErrorContext(ctx, "Failed to publish ledger event", fields.WithError(err).ToSlice()...)
	}
}

// checkReference resolves a transaction's category and enforces its type.
func (s *LedgerService) checkReference(ctx context.Context, t core.Transaction, want core.CategoryType) error {
	if t.CategoryID == nil {
		return nil
	}
	c, err := s.store.GetCategory(ctx, t.OwnerID, *t.CategoryID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, *t.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	return core.CheckCategory(c, want)
}

// Categories

func (s *LedgerService) ListCategories(ctx context.Context, ownerID string, q store.Query) ([]core.Category, error) {
	return s.store.ListCategories(ctx, ownerID, q)
}

func (s *LedgerService) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, ownerID, id)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = ""
	return s.saveCategory(ctx, c, amqp.ActionCreated)
}

// UpdateCategory replaces an existing category.
func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if _, err := s.store.GetCategory(ctx, c.OwnerID, c.ID); err != nil {
		return core.Category{}, err
	}
	return s.saveCategory(ctx, c, amqp.ActionUpdated)
}

func (s *LedgerService) saveCategory(ctx context.Context, c core.Category, action amqp.Action) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.store.SaveCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.changed(ctx, saved.OwnerID, amqp.KindCategory, action, saved.ID)
	return saved, nil
}

// DeleteCategory removes a category. Transactions that reference it keep the
// dangling id and are reported under the Unknown category.
func (s *LedgerService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCategory(ctx, ownerID, id); err != nil {
		return err
	}
	s.changed(ctx, ownerID, amqp.KindCategory, amqp.ActionDeleted, id)
	return nil
}

// Income

func (s *LedgerService) ListIncome(ctx context.Context, ownerID string, q store.Query) ([]core.Income, error) {
	return s.store.ListIncome(ctx, ownerID, q)
}

func (s *LedgerService) GetIncome(ctx context.Context, ownerID, id string) (core.Income, error) {
	return s.store.GetIncome(ctx, ownerID, id)
}

func (s *LedgerService) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.ID = ""
	return s.saveIncome(ctx, in, amqp.ActionCreated)
}

func (s *LedgerService) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if _, err := s.store.GetIncome(ctx, in.OwnerID, in.ID); err != nil {
		return core.Income{}, err
	}
	return s.saveIncome(ctx, in, amqp.ActionUpdated)
}

func (s *LedgerService) saveIncome(ctx context.Context, in core.Income, action amqp.Action) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := s.checkReference(ctx, in.Transaction, core.IncomeCategory); err != nil {
		return core.Income{}, err
	}
	saved, err := s.store.SaveIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.changed(ctx, saved.OwnerID, amqp.KindIncome, action, saved.ID)
	return saved, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteIncome(ctx, ownerID, id); err != nil {
		return err
	}
	s.changed(ctx, ownerID, amqp.KindIncome, amqp.ActionDeleted, id)
	return nil
}

// Expenses

func (s *LedgerService) ListExpenses(ctx context.Context, ownerID string, q store.Query) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, ownerID, q)
}

func (s *LedgerService) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, ownerID, id)
}

func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	return s.saveExpense(ctx, e, amqp.ActionCreated)
}

func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if _, err := s.store.GetExpense(ctx, e.OwnerID, e.ID); err != nil {
		return core.Expense{}, err
	}
	return s.saveExpense(ctx, e, amqp.ActionUpdated)
}

func (s *LedgerService) saveExpense(ctx context.Context, e core.Expense, action amqp.Action) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkReference(ctx, e.Transaction, core.ExpenseCategory); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.SaveExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, saved.OwnerID, amqp.KindExpense, action, saved.ID)
	return saved, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}
	s.changed(ctx, ownerID, amqp.KindExpense, amqp.ActionDeleted, id)
	return nil
}

// Settings

// GetSettings returns ErrSettingsNotConfigured when the owner has none.
func (s *LedgerService) GetSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	st, err := s.store.GetSettings(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return core.Settings{}, ErrSettingsNotConfigured
	}
	return st, err
}

func (s *LedgerService) SaveSettings(ctx context.Context, st core.Settings) (core.Settings, error) {
	if err := st.Validate(); err != nil {
		return core.Settings{}, err
	}
	action := amqp.ActionUpdated
	if _, err := s.store.GetSettings(ctx, st.OwnerID); errors.Is(err, store.ErrNotFound) {
		action = amqp.ActionCreated
	}
	saved, err := s.store.SaveSettings(ctx, st)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.changed(ctx, saved.OwnerID, amqp.KindSettings, action, saved.ID)
	return saved, nil
}

// IsValidation reports whether err should be surfaced as rejected input.
func IsValidation(err error) bool {
	return core.IsValidation(err) || errors.Is(err, ErrUnknownCategory)
}
