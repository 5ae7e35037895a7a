// Package memory is an in-process record store, used for development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	categories []core.Category
	income     []core.Income
	expenses   []core.Expense
	settings   map[string]core.Settings
	newID      func() string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		settings: make(map[string]core.Settings),
		newID:    uuid.NewString,
	}
}

// NewFromFile returns a store seeded from a JSON snapshot. A missing file
// yields an empty store.
func NewFromFile(ctx context.Context, path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	snap, err := store.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if _, err := store.Import(ctx, s, snap); err != nil {
		return nil, fmt.Errorf("seed memory store: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) id(current string) string {
	if current != "" {
		return current
	}
	return s.newID()
}

// Categories

func (s *Store) ListCategories(_ context.Context, ownerID string, q store.Query) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.OwnerID == ownerID && q.MatchCategory(c) {
			out = append(out, c)
		}
	}
	store.SortCategories(out, q)
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, ownerID, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.findCategory(ownerID, id); i >= 0 {
		return s.categories[i], nil
	}
	return core.Category{}, store.ErrNotFound
}

func (s *Store) SaveCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id(c.ID)
	if i := s.findCategory(c.OwnerID, c.ID); i >= 0 {
		s.categories[i] = c
	} else {
		s.categories = append(s.categories, c)
	}
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findCategory(ownerID, id)
	if i < 0 {
		return store.ErrNotFound
	}
	// Transactions keep their reference; it resolves to Unknown on display.
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	return nil
}

func (s *Store) findCategory(ownerID, id string) int {
	for i, c := range s.categories {
		if c.ID == id && c.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

// Income

func (s *Store) ListIncome(_ context.Context, ownerID string, q store.Query) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Income{}
	for _, in := range s.income {
		if in.OwnerID == ownerID && q.MatchTransaction(in.Transaction) {
			out = append(out, in)
		}
	}
	store.SortByDate(out, q)
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, ownerID, id string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := findTx(s.income, ownerID, id); i >= 0 {
		return s.income[i], nil
	}
	return core.Income{}, store.ErrNotFound
}

func (s *Store) SaveIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id(in.ID)
	if i := findTx(s.income, in.OwnerID, in.ID); i >= 0 {
		s.income[i] = in
	} else {
		s.income = append(s.income, in)
	}
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := findTx(s.income, ownerID, id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.income = append(s.income[:i], s.income[i+1:]...)
	return nil
}

// Expenses

func (s *Store) ListExpenses(_ context.Context, ownerID string, q store.Query) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.OwnerID == ownerID && q.MatchTransaction(e.Transaction) {
			out = append(out, e)
		}
	}
	store.SortByDate(out, q)
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := findTx(s.expenses, ownerID, id); i >= 0 {
		return s.expenses[i], nil
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) SaveExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id(e.ID)
	if i := findTx(s.expenses, e.OwnerID, e.ID); i >= 0 {
		s.expenses[i] = e
	} else {
		s.expenses = append(s.expenses, e)
	}
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := findTx(s.expenses, ownerID, id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
	return nil
}

func findTx[T interface{ Record() core.Transaction }](txs []T, ownerID, id string) int {
	for i, tx := range txs {
		r := tx.Record()
		if r.ID == id && r.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

// Settings

func (s *Store) GetSettings(_ context.Context, ownerID string) (core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[ownerID]
	if !ok {
		return core.Settings{}, store.ErrNotFound
	}
	return st, nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.settings[st.OwnerID]; ok && st.ID == "" {
		st.ID = prev.ID
	}
	st.ID = s.id(st.ID)
	s.settings[st.OwnerID] = st
	return st, nil
}
