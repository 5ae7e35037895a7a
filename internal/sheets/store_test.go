package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// fakeValues keeps each tab as a grid of rows; row 1 is grid[0].
type fakeValues struct {
	tabs     map[string][][]any
	failGets bool
}

func newFakeValues() *fakeValues {
	return &fakeValues{tabs: map[string][][]any{}}
}

var cellRange = regexp.MustCompile(`^([^!]+)!A(\d*):[A-Z]+(\d*)$`)

func (f *fakeValues) parse(rng string) (name string, row int) {
	m := cellRange.FindStringSubmatch(rng)
	if m == nil {
		panic("unexpected range " + rng)
	}
	row, _ = strconv.Atoi(m[2])
	return m[1], row
}

func (f *fakeValues) Get(_ context.Context, _ string, rng string) ([][]any, error) {
	if f.failGets {
		return nil, errors.New("quota exceeded")
	}
	name, row := f.parse(rng)
	grid := f.tabs[name]
	if row-1 >= len(grid) {
		return nil, nil
	}
	return grid[row-1:], nil
}

func (f *fakeValues) Append(_ context.Context, _ string, rng string, rows [][]any) error {
	name, _ := f.parse(rng)
	if len(f.tabs[name]) == 0 {
		f.tabs[name] = [][]any{{"header"}}
	}
	f.tabs[name] = append(f.tabs[name], rows...)
	return nil
}

func (f *fakeValues) Update(_ context.Context, _ string, rng string, rows [][]any) error {
	name, row := f.parse(rng)
	for len(f.tabs[name]) < row {
		f.tabs[name] = append(f.tabs[name], []any{})
	}
	f.tabs[name][row-1] = rows[0]
	return nil
}

func (f *fakeValues) Clear(_ context.Context, _ string, rng string) error {
	name, row := f.parse(rng)
	f.tabs[name][row-1] = []any{}
	return nil
}

func newTestStore() (*Store, *fakeValues) {
	fv := newFakeValues()
	s := newStore(fv, "sheet-id")
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s, fv
}

func TestEnsureHeaders(t *testing.T) {
	s, fv := newTestStore()
	if err := s.EnsureHeaders(context.Background()); err != nil {
		t.Fatalf("headers: %v", err)
	}
	got := fv.tabs["Settings"][0]
	if len(got) != 13 || got[0] != "id" || got[12] != "start_of_week" {
		t.Fatalf("unexpected settings header %v", got)
	}
}

func TestSheetsCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s, fv := newTestStore()

	c, err := s.SaveCategory(ctx, core.Category{OwnerID: "u1", Name: "Food", Type: core.ExpenseCategory, BudgetLimit: core.MustMoney("300"), Active: true})
	if err != nil || c.ID != "id-1" {
		t.Fatalf("save: %+v err=%v", c, err)
	}
	if row := fv.tabs["Categories"][1]; row[4] != "300.00" || row[7] != "TRUE" {
		t.Fatalf("unexpected row %v", row)
	}

	c.Name = "Groceries"
	if _, err := s.SaveCategory(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(fv.tabs["Categories"]) != 2 {
		t.Fatalf("update must rewrite the row, got %d rows", len(fv.tabs["Categories"]))
	}
	got, err := s.GetCategory(ctx, "u1", c.ID)
	if err != nil || got.Name != "Groceries" || !got.BudgetLimit.Equal(core.MustMoney("300")) {
		t.Fatalf("unexpected category %+v err=%v", got, err)
	}

	other := c
	other.OwnerID = "u2"
	if _, err := s.SaveCategory(ctx, other); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign id, got %v", err)
	}

	if err := s.DeleteCategory(ctx, "u1", c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListCategories(ctx, "u1", store.Query{})
	if len(list) != 0 {
		t.Fatalf("expected no categories after delete, got %+v", list)
	}
	if err := s.DeleteCategory(ctx, "u1", c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSheetsTransactions(t *testing.T) {
	ctx := context.Background()
	s, fv := newTestStore()
	food := "food"
	d1, _ := core.ParseDate("2024-03-01")
	d2, _ := core.ParseDate("2024-03-09")

	if _, err := s.SaveExpense(ctx, core.Expense{Transaction: core.Transaction{OwnerID: "u1", CategoryID: &food, Amount: core.MustMoney("12.5"), Date: d1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveExpense(ctx, core.Expense{Transaction: core.Transaction{OwnerID: "u1", Amount: core.MustMoney("3"), Date: d2}, Recurring: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A row typed by hand with a comma decimal and a bad one that is skipped.
	fv.tabs["Expenses"] = append(fv.tabs["Expenses"],
		[]any{"manual", "u1", "", "4,75", "2024-03-05", "coffee", "", "false"},
		[]any{"broken", "u1", "", "abc", "2024-03-05"},
	)

	list, err := s.ListExpenses(ctx, "u1", store.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 expenses, got %+v", list)
	}
	if list[0].Date.String() != "2024-03-09" || !list[0].Recurring {
		t.Fatalf("unexpected first expense %+v", list[0])
	}
	if !list[1].Amount.Equal(core.MustMoney("4.75")) || list[1].CategoryID != nil {
		t.Fatalf("unexpected manual expense %+v", list[1])
	}

	byCat, _ := s.ListExpenses(ctx, "u1", store.Query{CategoryID: &food})
	if len(byCat) != 1 || *byCat[0].CategoryID != "food" {
		t.Fatalf("unexpected filtered expenses %+v", byCat)
	}

	in, err := s.SaveIncome(ctx, core.Income{Transaction: core.Transaction{OwnerID: "u1", Amount: core.MustMoney("2000"), Date: d1, Description: "salary"}})
	if err != nil {
		t.Fatalf("save income: %v", err)
	}
	got, err := s.GetIncome(ctx, "u1", in.ID)
	if err != nil || got.Description != "salary" {
		t.Fatalf("unexpected income %+v err=%v", got, err)
	}
	if err := s.DeleteIncome(ctx, "u1", in.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if _, err := s.GetIncome(ctx, "u1", in.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSheetsSettings(t *testing.T) {
	ctx := context.Background()
	s, fv := newTestStore()

	if _, err := s.GetSettings(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st := core.DefaultSettings("u1")
	st.DailyBudget = core.FixedDailyBudget(core.MustMoney("20"))
	st.Risk = core.RiskThresholds{Low: 40, Medium: 70.5, High: 85}
	saved, err := s.SaveSettings(ctx, st)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	st.Currency = "EUR"
	again, err := s.SaveSettings(ctx, st)
	if err != nil || again.ID != saved.ID {
		t.Fatalf("settings must be updated in place: %+v err=%v", again, err)
	}
	if len(fv.tabs["Settings"]) != 2 {
		t.Fatalf("expected a single settings row, got %d", len(fv.tabs["Settings"])-1)
	}

	got, err := s.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Currency != "EUR" || got.Risk != st.Risk || !got.DailyBudget.IsFixed() {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestSheetsReadError(t *testing.T) {
	s, fv := newTestStore()
	fv.failGets = true
	_, err := s.ListCategories(context.Background(), "u1", store.Query{})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
