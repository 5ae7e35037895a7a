package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Store implements store.Store on top of a spreadsheet. Deleted rows are
// cleared rather than removed so row positions stay stable.
type Store struct {
	values        valuesAPI
	spreadsheetID string
	newID         func() string

	// mu serializes read-modify-write sequences that depend on row positions.
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New connects to the spreadsheet named in cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newStore(serviceValues{svc: svc}, cfg.SpreadsheetID), nil
}

func newStore(values valuesAPI, spreadsheetID string) *Store {
	return &Store{values: values, spreadsheetID: spreadsheetID, newID: uuid.NewString}
}

func (s *Store) Close() error { return nil }

// EnsureHeaders writes the header row of every tab.
func (s *Store) EnsureHeaders(ctx context.Context) error {
	for _, t := range []tab{categoriesTab, incomeTab, expensesTab, settingsTab} {
		rng := fmt.Sprintf("%s!A1:%s1", t.name, t.lastCol)
		if err := s.values.Update(ctx, s.spreadsheetID, rng, [][]any{t.header}); err != nil {
			return fmt.Errorf("write %s header: %w", t.name, err)
		}
	}
	return nil
}

type entry[T any] struct {
	index int
	rec   T
}

func load[T any](ctx context.Context, s *Store, t tab, parse func([]string) (T, error)) ([]entry[T], error) {
	rows, err := s.values.Get(ctx, s.spreadsheetID, t.dataRange())
	if err != nil {
		return nil, err
	}
	out := make([]entry[T], 0, len(rows))
	for i, row := range rows {
		cols := toStrings(row)
		if safeGet(cols, 0) == "" {
			continue
		}
		rec, err := parse(cols)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed row", "sheet", t.name, "row", i+firstDataRow, "error", err)
			continue
		}
		out = append(out, entry[T]{index: i, rec: rec})
	}
	return out, nil
}

// upsert rewrites the row holding id, or appends a new one. A row with the
// same id that belongs to another owner is reported as not found.
func upsert[T any](ctx context.Context, s *Store, t tab, entries []entry[T], key func(T) (id, owner string), id, owner string, row []any) error {
	for _, e := range entries {
		eid, eowner := key(e.rec)
		if eid != id {
			continue
		}
		if eowner != owner {
			return store.ErrNotFound
		}
		return s.values.Update(ctx, s.spreadsheetID, t.rowRange(e.index), [][]any{row})
	}
	return s.values.Append(ctx, s.spreadsheetID, t.appendRange(), [][]any{row})
}

func remove[T any](ctx context.Context, s *Store, t tab, entries []entry[T], key func(T) (id, owner string), id, owner string) error {
	for _, e := range entries {
		if eid, eowner := key(e.rec); eid == id && eowner == owner {
			return s.values.Clear(ctx, s.spreadsheetID, t.rowRange(e.index))
		}
	}
	return store.ErrNotFound
}

func (s *Store) id(current string) string {
	if current != "" {
		return current
	}
	return s.newID()
}

// Categories

func categoryKey(c core.Category) (string, string) { return c.ID, c.OwnerID }

func (s *Store) ListCategories(ctx context.Context, ownerID string, q store.Query) ([]core.Category, error) {
	entries, err := load(ctx, s, categoriesTab, parseCategory)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := []core.Category{}
	for _, e := range entries {
		if e.rec.OwnerID == ownerID && q.MatchCategory(e.rec) {
			out = append(out, e.rec)
		}
	}
	store.SortCategories(out, q)
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	entries, err := load(ctx, s, categoriesTab, parseCategory)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	for _, e := range entries {
		if e.rec.ID == id && e.rec.OwnerID == ownerID {
			return e.rec, nil
		}
	}
	return core.Category{}, store.ErrNotFound
}

func (s *Store) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, categoriesTab, parseCategory)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	c.ID = s.id(c.ID)
	if err := upsert(ctx, s, categoriesTab, entries, categoryKey, c.ID, c.OwnerID, categoryRow(c)); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, categoriesTab, parseCategory)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return remove(ctx, s, categoriesTab, entries, categoryKey, id, ownerID)
}

// Income

func incomeKey(in core.Income) (string, string) { return in.ID, in.OwnerID }

func parseIncome(cols []string) (core.Income, error) {
	t, err := parseTransaction(cols)
	return core.Income{Transaction: t}, err
}

func (s *Store) ListIncome(ctx context.Context, ownerID string, q store.Query) ([]core.Income, error) {
	entries, err := load(ctx, s, incomeTab, parseIncome)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	out := []core.Income{}
	for _, e := range entries {
		if e.rec.OwnerID == ownerID && q.MatchTransaction(e.rec.Transaction) {
			out = append(out, e.rec)
		}
	}
	store.SortByDate(out, q)
	return out, nil
}

func (s *Store) GetIncome(ctx context.Context, ownerID, id string) (core.Income, error) {
	entries, err := load(ctx, s, incomeTab, parseIncome)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	for _, e := range entries {
		if e.rec.ID == id && e.rec.OwnerID == ownerID {
			return e.rec, nil
		}
	}
	return core.Income{}, store.ErrNotFound
}

func (s *Store) SaveIncome(ctx context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, incomeTab, parseIncome)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	in.ID = s.id(in.ID)
	if err := upsert(ctx, s, incomeTab, entries, incomeKey, in.ID, in.OwnerID, transactionRow(in.Transaction)); err != nil {
		return core.Income{}, err
	}
	return in, nil
}

func (s *Store) DeleteIncome(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, incomeTab, parseIncome)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return remove(ctx, s, incomeTab, entries, incomeKey, id, ownerID)
}

// Expenses

func expenseKey(e core.Expense) (string, string) { return e.ID, e.OwnerID }

func (s *Store) ListExpenses(ctx context.Context, ownerID string, q store.Query) ([]core.Expense, error) {
	entries, err := load(ctx, s, expensesTab, parseExpense)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := []core.Expense{}
	for _, e := range entries {
		if e.rec.OwnerID == ownerID && q.MatchTransaction(e.rec.Transaction) {
			out = append(out, e.rec)
		}
	}
	store.SortByDate(out, q)
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	entries, err := load(ctx, s, expensesTab, parseExpense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	for _, e := range entries {
		if e.rec.ID == id && e.rec.OwnerID == ownerID {
			return e.rec, nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) SaveExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, expensesTab, parseExpense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = s.id(e.ID)
	if err := upsert(ctx, s, expensesTab, entries, expenseKey, e.ID, e.OwnerID, expenseRow(e)); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, expensesTab, parseExpense)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return remove(ctx, s, expensesTab, entries, expenseKey, id, ownerID)
}

// Settings

func (s *Store) GetSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	entries, err := load(ctx, s, settingsTab, parseSettings)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	for _, e := range entries {
		if e.rec.OwnerID == ownerID {
			return e.rec, nil
		}
	}
	return core.Settings{}, store.ErrNotFound
}

func (s *Store) SaveSettings(ctx context.Context, st core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := load(ctx, s, settingsTab, parseSettings)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	for _, e := range entries {
		if e.rec.OwnerID == st.OwnerID {
			st.ID = e.rec.ID
			if err := s.values.Update(ctx, s.spreadsheetID, settingsTab.rowRange(e.index), [][]any{settingsRow(st)}); err != nil {
				return core.Settings{}, err
			}
			return st, nil
		}
	}
	st.ID = s.id(st.ID)
	if err := s.values.Append(ctx, s.spreadsheetID, settingsTab.appendRange(), [][]any{settingsRow(st)}); err != nil {
		return core.Settings{}, err
	}
	return st, nil
}
