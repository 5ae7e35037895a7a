package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// tab describes one collection's worksheet. Row 1 is the header; data starts at row 2.
type tab struct {
	name    string
	lastCol string
	header  []any
}

var (
	categoriesTab = tab{name: "Categories", lastCol: "H", header: []any{
		"id", "owner_id", "name", "type", "budget_limit", "color", "icon", "is_active"}}
	incomeTab = tab{name: "Income", lastCol: "G", header: []any{
		"id", "owner_id", "category_id", "amount", "date", "description", "notes"}}
	expensesTab = tab{name: "Expenses", lastCol: "H", header: []any{
		"id", "owner_id", "category_id", "amount", "date", "description", "notes", "is_recurring"}}
	settingsTab = tab{name: "Settings", lastCol: "M", header: []any{
		"id", "owner_id", "currency", "monthly_income_target", "monthly_expense_limit",
		"weekly_expense_limit", "daily_budget_mode", "fixed_daily_budget", "risk_threshold_low",
		"risk_threshold_medium", "risk_threshold_high", "start_of_month", "start_of_week"}}
)

const firstDataRow = 2

func (t tab) dataRange() string {
	return fmt.Sprintf("%s!A%d:%s", t.name, firstDataRow, t.lastCol)
}

func (t tab) appendRange() string {
	return fmt.Sprintf("%s!A:%s", t.name, t.lastCol)
}

// rowRange addresses the i-th data row (0-based).
func (t tab) rowRange(i int) string {
	row := i + firstDataRow
	return fmt.Sprintf("%s!A%d:%s%d", t.name, row, t.lastCol, row)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func boolCell(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func parseBoolCell(s string, fallback bool) bool {
	if s == "" {
		return fallback
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

func moneyCell(s string) (core.Money, error) {
	if s == "" {
		return core.Zero, nil
	}
	return core.ParseAmount(s)
}

func optionalID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func idCell(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func categoryRow(c core.Category) []any {
	return []any{c.ID, c.OwnerID, c.Name, string(c.Type), c.BudgetLimit.String(), c.Color, c.Icon, boolCell(c.Active)}
}

func parseCategory(cols []string) (core.Category, error) {
	limit, err := moneyCell(safeGet(cols, 4))
	if err != nil {
		return core.Category{}, fmt.Errorf("budget_limit: %w", err)
	}
	c := core.Category{
		ID:          safeGet(cols, 0),
		OwnerID:     safeGet(cols, 1),
		Name:        safeGet(cols, 2),
		Type:        core.CategoryType(strings.ToLower(safeGet(cols, 3))),
		BudgetLimit: limit,
		Color:       safeGet(cols, 5),
		Icon:        safeGet(cols, 6),
		Active:      parseBoolCell(safeGet(cols, 7), true),
	}
	if !c.Type.IsValid() {
		return core.Category{}, fmt.Errorf("%w: %q", core.ErrInvalidCategoryType, c.Type)
	}
	return c, nil
}

func transactionRow(t core.Transaction) []any {
	return []any{t.ID, t.OwnerID, idCell(t.CategoryID), t.Amount.String(), t.Date.String(), t.Description, t.Notes}
}

func parseTransaction(cols []string) (core.Transaction, error) {
	amount, err := core.ParseAmount(safeGet(cols, 3))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	date, err := core.ParseDate(safeGet(cols, 4))
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          safeGet(cols, 0),
		OwnerID:     safeGet(cols, 1),
		CategoryID:  optionalID(safeGet(cols, 2)),
		Amount:      amount,
		Date:        date,
		Description: safeGet(cols, 5),
		Notes:       safeGet(cols, 6),
	}, nil
}

func expenseRow(e core.Expense) []any {
	return append(transactionRow(e.Transaction), boolCell(e.Recurring))
}

func parseExpense(cols []string) (core.Expense, error) {
	t, err := parseTransaction(cols)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{Transaction: t, Recurring: parseBoolCell(safeGet(cols, 7), false)}, nil
}

func settingsRow(s core.Settings) []any {
	return []any{
		s.ID, s.OwnerID, s.Currency, s.MonthlyIncomeTarget.String(), s.MonthlyExpenseLimit.String(),
		s.WeeklyExpenseLimit.String(), string(s.DailyBudget.Mode()), s.DailyBudget.FixedAmountOrZero().String(),
		strconv.FormatFloat(s.Risk.Low, 'f', -1, 64),
		strconv.FormatFloat(s.Risk.Medium, 'f', -1, 64),
		strconv.FormatFloat(s.Risk.High, 'f', -1, 64),
		strconv.Itoa(s.StartOfMonth), strconv.Itoa(s.StartOfWeek),
	}
}

func parseSettings(cols []string) (core.Settings, error) {
	s := core.DefaultSettings(safeGet(cols, 1))
	s.ID = safeGet(cols, 0)
	if v := safeGet(cols, 2); v != "" {
		s.Currency = v
	}

	var err error
	amounts := []struct {
		name string
		col  int
		dst  *core.Money
	}{
		{"monthly_income_target", 3, &s.MonthlyIncomeTarget},
		{"monthly_expense_limit", 4, &s.MonthlyExpenseLimit},
		{"weekly_expense_limit", 5, &s.WeeklyExpenseLimit},
	}
	for _, a := range amounts {
		if *a.dst, err = moneyCell(safeGet(cols, a.col)); err != nil {
			return core.Settings{}, fmt.Errorf("%s: %w", a.name, err)
		}
	}

	fixed, err := moneyCell(safeGet(cols, 7))
	if err != nil {
		return core.Settings{}, fmt.Errorf("fixed_daily_budget: %w", err)
	}
	if s.DailyBudget, err = core.ParseDailyBudgetPolicy(safeGet(cols, 6), fixed); err != nil {
		return core.Settings{}, err
	}

	floats := []struct {
		col int
		dst *float64
	}{{8, &s.Risk.Low}, {9, &s.Risk.Medium}, {10, &s.Risk.High}}
	for _, f := range floats {
		v := safeGet(cols, f.col)
		if v == "" {
			continue
		}
		if *f.dst, err = strconv.ParseFloat(v, 64); err != nil {
			return core.Settings{}, fmt.Errorf("%w: %q", core.ErrInvalidThresholds, v)
		}
	}

	ints := []struct {
		col int
		dst *int
	}{{11, &s.StartOfMonth}, {12, &s.StartOfWeek}}
	for _, n := range ints {
		v := safeGet(cols, n.col)
		if v == "" {
			continue
		}
		if *n.dst, err = strconv.Atoi(v); err != nil {
			return core.Settings{}, fmt.Errorf("%w: %q", core.ErrInvalidAnchorDay, v)
		}
	}
	return s, nil
}
