package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func tx(owner, amount, date string, category *string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{OwnerID: owner, Amount: core.MustMoney(amount), Date: d, CategoryID: category}
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	food, err := s.SaveCategory(ctx, core.Category{OwnerID: "u1", Name: "Food", Type: core.ExpenseCategory, Active: true})
	if err != nil || food.ID == "" {
		t.Fatalf("unexpected save: %+v err=%v", food, err)
	}
	if _, err := s.SaveCategory(ctx, core.Category{OwnerID: "u1", Name: "bills", Type: core.ExpenseCategory}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveCategory(ctx, core.Category{OwnerID: "u1", Name: "Salary", Type: core.IncomeCategory, Active: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveCategory(ctx, core.Category{OwnerID: "u2", Name: "Other", Type: core.ExpenseCategory}); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, _ := s.ListCategories(ctx, "u1", store.Query{})
	if len(all) != 3 || all[0].Name != "bills" || all[1].Name != "Food" || all[2].Name != "Salary" {
		t.Fatalf("unexpected categories: %+v", all)
	}
	expense, _ := s.ListCategories(ctx, "u1", store.Query{Type: core.ExpenseCategory, ActiveOnly: true})
	if len(expense) != 1 || expense[0].ID != food.ID {
		t.Fatalf("unexpected filtered categories: %+v", expense)
	}

	food.Name = "Groceries"
	if _, err := s.SaveCategory(ctx, food); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetCategory(ctx, "u1", food.ID)
	if err != nil || got.Name != "Groceries" {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}
	if _, err := s.GetCategory(ctx, "u2", food.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("other owner must not see the category, got %v", err)
	}

	if err := s.DeleteCategory(ctx, "u1", food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, "u1", food.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteCategoryKeepsTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, _ := s.SaveCategory(ctx, core.Category{OwnerID: "u1", Name: "Food", Type: core.ExpenseCategory})
	id := c.ID
	e, _ := s.SaveExpense(ctx, core.Expense{Transaction: tx("u1", "10", "2024-03-01", &id)})

	if err := s.DeleteCategory(ctx, "u1", c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetExpense(ctx, "u1", e.ID)
	if err != nil || got.CategoryID == nil || *got.CategoryID != id {
		t.Fatalf("expense should keep its dangling reference: %+v err=%v", got, err)
	}
}

func TestExpenseListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	food := "food"
	for _, e := range []core.Expense{
		{Transaction: tx("u1", "1", "2024-03-02", &food)},
		{Transaction: tx("u1", "2", "2024-03-01", nil)},
		{Transaction: tx("u1", "3", "2024-03-03", &food), Recurring: true},
		{Transaction: tx("u2", "4", "2024-03-04", nil)},
	} {
		if _, err := s.SaveExpense(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	desc, _ := s.ListExpenses(ctx, "u1", store.Query{})
	if len(desc) != 3 || desc[0].Date.String() != "2024-03-03" || desc[2].Date.String() != "2024-03-01" {
		t.Fatalf("expected newest first: %+v", desc)
	}
	asc, _ := s.ListExpenses(ctx, "u1", store.Query{Order: store.Ascending})
	if asc[0].Date.String() != "2024-03-01" {
		t.Fatalf("expected oldest first: %+v", asc)
	}
	byCat, _ := s.ListExpenses(ctx, "u1", store.Query{CategoryID: &food})
	if len(byCat) != 2 {
		t.Fatalf("expected 2 food expenses, got %d", len(byCat))
	}
	if !byCat[0].Recurring {
		t.Fatalf("recurring flag lost")
	}
}

func TestIncomeCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	in, err := s.SaveIncome(ctx, core.Income{Transaction: tx("u1", "2000", "2024-03-01", nil)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	in.Amount = core.MustMoney("2100")
	if _, err := s.SaveIncome(ctx, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := s.ListIncome(ctx, "u1", store.Query{})
	if len(list) != 1 || !list[0].Amount.Equal(core.MustMoney("2100")) {
		t.Fatalf("unexpected income: %+v", list)
	}
	if err := s.DeleteIncome(ctx, "u1", in.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetIncome(ctx, "u1", in.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.GetSettings(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	first, err := s.SaveSettings(ctx, core.DefaultSettings("u1"))
	if err != nil || first.ID == "" {
		t.Fatalf("unexpected save: %+v err=%v", first, err)
	}
	next := core.DefaultSettings("u1")
	next.Currency = "EUR"
	second, _ := s.SaveSettings(ctx, next)
	if second.ID != first.ID {
		t.Fatalf("settings are one per owner, got ids %s and %s", first.ID, second.ID)
	}
	got, _ := s.GetSettings(ctx, "u1")
	if got.Currency != "EUR" {
		t.Fatalf("expected EUR, got %s", got.Currency)
	}
}

func TestNewFromFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Missing file -> empty store
	s, err := NewFromFile(ctx, filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list, _ := s.ListCategories(ctx, "u1", store.Query{}); len(list) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `{
  "categories": [{"id": "food", "owner_id": "u1", "name": "Food", "type": "expense", "budget_limit": "300", "is_active": true}],
  "income": [{"owner_id": "u1", "amount": "2000", "date": "2024-03-01"}],
  "expenses": [{"owner_id": "u1", "category_id": "food", "amount": 12.5, "date": "2024-03-02"}],
  "settings": [{"owner_id": "u1", "currency": "EUR", "monthly_expense_limit": "1000",
    "daily_budget": {"mode": "fixed", "fixed_amount": "20"},
    "risk_thresholds": {"low": 50, "medium": 75, "high": 90}, "start_of_month": 1, "start_of_week": 1}]
}`
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(ctx, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	exp, _ := s.ListExpenses(ctx, "u1", store.Query{})
	if len(exp) != 1 || exp[0].CategoryID == nil || *exp[0].CategoryID != "food" || exp[0].ID == "" {
		t.Fatalf("unexpected expenses: %+v", exp)
	}
	st, err := s.GetSettings(ctx, "u1")
	if err != nil || !st.DailyBudget.IsFixed() || st.Currency != "EUR" {
		t.Fatalf("unexpected settings: %+v err=%v", st, err)
	}

	if err := os.WriteFile(path, []byte(`{"expenses": [{"owner_id": "u1", "amount": "-1", "date": "2024-03-02"}]}`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(ctx, path); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
