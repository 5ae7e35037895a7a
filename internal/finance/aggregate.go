package finance

import (
	"slices"

	"fintrack/internal/core"
)

// UncategorizedName labels transactions without a category reference.
const UncategorizedName = "Uncategorized"

// Record is satisfied by core.Income and core.Expense.
type Record interface {
	Record() core.Transaction
}

// FilterByRange returns the transactions dated within w, preserving order.
// The input slice is never modified.
func FilterByRange[T Record](txs []T, w Window) []T {
	out := make([]T, 0, len(txs))
	for _, tx := range txs {
		if w.Contains(tx.Record().Date.Time) {
			out = append(out, tx)
		}
	}
	return out
}

// SumAmounts adds the amounts of txs exactly.
func SumAmounts[T Record](txs []T) core.Money {
	total := core.Zero
	for _, tx := range txs {
		total = total.Add(tx.Record().Amount)
	}
	return total
}

// CategoryTotal is the spend of one expense category within a month window.
type CategoryTotal struct {
	Category   core.Category `json:"category"`
	Spent      core.Money    `json:"spent"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"` // of the budget limit, 0 when unlimited
	Remaining  core.Money    `json:"remaining"`
}

// GroupExpensesByCategory totals the expenses inside w per expense-type
// category. Categories with neither spend nor a budget limit are dropped.
// The result is ordered by spend, highest first; ties keep category order.
func GroupExpensesByCategory(expenses []core.Expense, categories []core.Category, w Window) []CategoryTotal {
	inWindow := FilterByRange(expenses, w)

	var totals []CategoryTotal
	for _, c := range categories {
		if c.Type != core.ExpenseCategory {
			continue
		}
		spent := core.Zero
		count := 0
		for _, e := range inWindow {
			if e.CategoryID != nil && *e.CategoryID == c.ID {
				spent = spent.Add(e.Amount)
				count++
			}
		}
		if !spent.IsPositive() && !c.BudgetLimit.IsPositive() {
			continue
		}
		totals = append(totals, CategoryTotal{
			Category:   c,
			Spent:      spent,
			Count:      count,
			Percentage: Usage(spent, c.BudgetLimit),
			Remaining:  Remaining(spent, c.BudgetLimit),
		})
	}

	slices.SortStableFunc(totals, func(a, b CategoryTotal) int {
		return b.Spent.Cmp(a.Spent)
	})
	return totals
}

// Breakdown is the month's spend per expense category plus the spend that
// cannot be shown under one.
type Breakdown struct {
	Categories []CategoryTotal `json:"categories"`
	Unassigned []CategoryTotal `json:"unassigned"`
}

// UnassignedTotals totals the expenses inside w that GroupExpensesByCategory
// leaves out: expenses without a category, reported under Uncategorized, and
// expenses whose category no longer exists, reported under Unknown. Empty
// groups are omitted.
func UnassignedTotals(expenses []core.Expense, categories []core.Category, w Window) []CategoryTotal {
	var uncategorized, unknown CategoryTotal
	uncategorized.Spent, unknown.Spent = core.Zero, core.Zero
	for _, e := range FilterByRange(expenses, w) {
		c, ok := ResolveCategory(e.CategoryID, categories)
		if ok {
			continue
		}
		t := &unknown
		if e.CategoryID == nil {
			t = &uncategorized
		}
		t.Category = core.Category{Name: c.Name, Type: core.ExpenseCategory}
		t.Spent = t.Spent.Add(e.Amount)
		t.Count++
	}

	var out []CategoryTotal
	for _, t := range []CategoryTotal{uncategorized, unknown} {
		if t.Count > 0 {
			t.Remaining = core.Zero
			out = append(out, t)
		}
	}
	return out
}

// DailyTotal is the expense total of one calendar day.
type DailyTotal struct {
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// DailyTotals returns one entry per day of w, in order, including empty days.
func DailyTotals(expenses []core.Expense, w Window) []DailyTotal {
	days := w.Days()
	out := make([]DailyTotal, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		out[i] = DailyTotal{Date: d, Amount: core.Zero}
		index[d.String()] = i
	}
	for _, e := range FilterByRange(expenses, w) {
		if i, ok := index[e.Date.String()]; ok {
			out[i].Amount = out[i].Amount.Add(e.Amount)
			out[i].Count++
		}
	}
	return out
}

// ResolveCategory looks up the category referenced by id. A nil id yields an
// Uncategorized placeholder and a dangling id an Unknown one; ok is false in
// both cases.
func ResolveCategory(id *string, categories []core.Category) (c core.Category, ok bool) {
	if id == nil {
		return core.Category{Name: UncategorizedName}, false
	}
	for _, c := range categories {
		if c.ID == *id {
			return c, true
		}
	}
	return core.Category{ID: *id, Name: core.UnknownCategoryName}, false
}
