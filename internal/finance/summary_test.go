package finance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func scenarioSettings() core.Settings {
	s := core.DefaultSettings("u1")
	s.StartOfMonth = 1
	s.StartOfWeek = 1
	s.MonthlyExpenseLimit = core.MustMoney("1000")
	s.WeeklyExpenseLimit = core.MustMoney("250")
	s.Risk = core.RiskThresholds{Low: 50, Medium: 75, High: 90}
	return s
}

func TestComposeSummaryScenario(t *testing.T) {
	incomes := []core.Income{income("i1", "2000", "2024-03-01")}
	expenses := []core.Expense{
		expense("e1", "400", "2024-03-10", nil),
		expense("e2", "700", "2024-03-14", nil),
	}

	s := ComposeSummary(incomes, expenses, scenarioSettings(), day(2024, 3, 15))

	assertMoney(t, "2000", s.TotalIncome)
	assertMoney(t, "1100", s.TotalExpenses)
	assertMoney(t, "1100", s.MonthlySpent)
	assertMoney(t, "900", s.Balance)
	assertMoney(t, "900", s.Savings)
	assertMoney(t, "1000", s.MonthlyLimit)
	assertMoney(t, "0", s.MonthlyRemaining)
	assert.Equal(t, 100.0, s.MonthlyProgress)
	assert.Equal(t, RiskCritical, s.RiskLevel)
	assert.InDelta(t, 110.0, s.RiskPercentage, 1e-9)

	// Week of Mon 11 to Sun 17: the 10th is outside.
	assertMoney(t, "700", s.WeeklySpent)
	assertMoney(t, "250", s.WeeklyLimit)
	assertMoney(t, "0", s.WeeklyRemaining)
	assert.Equal(t, 100.0, s.WeeklyProgress)
	assert.Equal(t, 1, s.WeeklyCount)

	assert.Equal(t, 1, s.IncomeCount)
	assert.Equal(t, 2, s.ExpenseCount)

	assert.Equal(t, core.DailyBudgetCalculated, s.DailyBudgetMode)
	assert.Equal(t, "52.94", s.DailyBudget.StringFixed(2))

	require.NotNil(t, s.DaysUntilZero)
	assert.Equal(t, 24, *s.DaysUntilZero) // 900 / (1100/30) = 24.5

	assert.Equal(t, "2024-03-15", s.ReferenceDate.String())
	assert.Equal(t, day(2024, 3, 1), s.Month.Start)
	assert.Equal(t, day(2024, 3, 11), s.Week.Start)
}

func TestComposeSummaryEmpty(t *testing.T) {
	s := ComposeSummary(nil, nil, core.DefaultSettings("u1"), day(2024, 3, 15))

	assertMoney(t, "0", s.TotalIncome)
	assertMoney(t, "0", s.Balance)
	assertMoney(t, "0", s.DailyBudget)
	assert.Equal(t, RiskLow, s.RiskLevel)
	assert.Equal(t, 0.0, s.MonthlyProgress)
	require.NotNil(t, s.DaysUntilZero, "non-positive balance is out of runway")
	assert.Equal(t, 0, *s.DaysUntilZero)
}

func TestComposeSummaryRunwayUsesFullHistory(t *testing.T) {
	// Month anchored on the 10th starts 2024-03-10, but spending on
	// 2024-03-01 still counts toward the trailing runway average.
	settings := scenarioSettings()
	settings.StartOfMonth = 10

	incomes := []core.Income{income("i1", "300", "2024-03-12")}
	expenses := []core.Expense{expense("e1", "300", "2024-03-01", nil)}

	s := ComposeSummary(incomes, expenses, settings, day(2024, 3, 15))
	assertMoney(t, "0", s.TotalExpenses)
	require.NotNil(t, s.DaysUntilZero)
	assert.Equal(t, 30, *s.DaysUntilZero)
}

func TestComposeSummaryDoesNotMutateInput(t *testing.T) {
	expenses := []core.Expense{
		expense("b", "2", "2024-03-02", nil),
		expense("a", "1", "2024-02-01", nil),
	}
	before := ids(expenses)
	ComposeSummary(nil, expenses, scenarioSettings(), day(2024, 3, 15))
	assert.Equal(t, before, ids(expenses))
}

func TestSummaryJSON(t *testing.T) {
	s := ComposeSummary(nil, nil, core.DefaultSettings("u1"), day(2024, 3, 15))
	s.DaysUntilZero = nil

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Nil(t, raw["daysUntilZero"])
	assert.Contains(t, raw, "daysUntilZero")
	assert.Equal(t, "0.00", raw["totalIncome"])
	assert.Equal(t, "low", raw["riskLevel"])
}

func TestEngineUsesClock(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	e := NewEngine(func() time.Time { return now })

	assert.Equal(t, now, e.Reference(nil))
	other := day(2024, 1, 2)
	assert.Equal(t, other, e.Reference(&other))

	incomes := []core.Income{income("i1", "2000", "2024-03-01")}
	got := e.Summary(incomes, nil, scenarioSettings(), nil)
	assert.Equal(t, ComposeSummary(incomes, nil, scenarioSettings(), now), got)

	totals := e.WeeklyTotals(nil, scenarioSettings(), nil)
	require.Len(t, totals, 7)
	assert.Equal(t, "2024-03-11", totals[0].Date.String())
}

func TestNewEngineDefaultsToNow(t *testing.T) {
	e := NewEngine(nil)
	require.NotNil(t, e.Clock)
	assert.WithinDuration(t, time.Now(), e.Reference(nil), time.Minute)
}
