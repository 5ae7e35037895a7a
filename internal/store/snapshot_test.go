package store_test

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

func sampleSnapshot() store.Snapshot {
	food := "food"
	gone := "deleted-category"
	d, _ := core.ParseDate("2024-03-10")
	settings := core.DefaultSettings("")
	settings.ID = "settings-1"
	return store.Snapshot{
		Categories: []core.Category{{ID: food, Name: "Food", Type: core.ExpenseCategory, Active: true}},
		Expenses: []core.Expense{
			{Transaction: core.Transaction{ID: "e1", CategoryID: &food, Amount: core.MustMoney("40"), Date: d}},
			{Transaction: core.Transaction{ID: "e2", CategoryID: &gone, Amount: core.MustMoney("5"), Date: d}},
		},
		Income:   []core.Income{{Transaction: core.Transaction{ID: "i1", Amount: core.MustMoney("100"), Date: d}}},
		Settings: []core.Settings{settings},
	}
}

func TestForOwnerAssignsFreshIDs(t *testing.T) {
	snap := sampleSnapshot()
	a, b := snap.ForOwner("u1"), snap.ForOwner("u2")

	if a.Categories[0].ID == "food" || a.Categories[0].ID == b.Categories[0].ID {
		t.Fatalf("category ids not regenerated: %q %q", a.Categories[0].ID, b.Categories[0].ID)
	}
	if a.Categories[0].OwnerID != "u1" || b.Expenses[0].OwnerID != "u2" || a.Settings[0].OwnerID != "u1" {
		t.Errorf("owner not assigned: %+v %+v", a.Categories[0], b.Expenses[0])
	}
	if got := *a.Expenses[0].CategoryID; got != a.Categories[0].ID {
		t.Errorf("category reference = %q, want %q", got, a.Categories[0].ID)
	}
	if got := *a.Expenses[1].CategoryID; got != "deleted-category" {
		t.Errorf("dangling reference rewritten to %q", got)
	}
	if a.Expenses[0].ID == "e1" || a.Income[0].ID == "i1" || a.Settings[0].ID != "" {
		t.Errorf("record ids kept: %q %q %q", a.Expenses[0].ID, a.Income[0].ID, a.Settings[0].ID)
	}
	if snap.Categories[0].ID != "food" || *snap.Expenses[0].CategoryID != "food" {
		t.Error("ForOwner modified the source snapshot")
	}
}

func TestImportSameSnapshotForTwoOwners(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	snap := sampleSnapshot()

	for _, owner := range []string{"u1", "u2"} {
		stats, err := store.Import(ctx, st, snap.ForOwner(owner))
		if err != nil {
			t.Fatalf("import for %s: %v", owner, err)
		}
		if stats.Categories != 1 || stats.Expenses != 2 || stats.Income != 1 || stats.Settings != 1 {
			t.Errorf("import for %s stats = %+v", owner, stats)
		}
	}

	for _, owner := range []string{"u1", "u2"} {
		cats, err := st.ListCategories(ctx, owner, store.Query{})
		if err != nil || len(cats) != 1 {
			t.Fatalf("%s categories = %v err=%v", owner, cats, err)
		}
		expenses, err := st.ListExpenses(ctx, owner, store.Query{CategoryID: &cats[0].ID})
		if err != nil || len(expenses) != 1 {
			t.Errorf("%s expenses in %s = %v err=%v", owner, cats[0].ID, expenses, err)
		}
		if _, err := st.GetSettings(ctx, owner); err != nil {
			t.Errorf("%s settings: %v", owner, err)
		}
	}
}
