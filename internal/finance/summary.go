package finance

import (
	"time"

	"fintrack/internal/core"
)

// Summary is the consolidated result of one computation. It is never persisted.
type Summary struct {
	ReferenceDate core.Date `json:"referenceDate"`
	Month         Window    `json:"monthWindow"`
	Week          Window    `json:"weekWindow"`

	TotalIncome   core.Money `json:"totalIncome"`
	TotalExpenses core.Money `json:"totalExpenses"`
	Balance       core.Money `json:"balance"`
	Savings       core.Money `json:"savings"`
	IncomeCount   int        `json:"incomeCount"`
	ExpenseCount  int        `json:"expenseCount"`

	DailyBudget     core.Money           `json:"dailyBudget"`
	DailyBudgetMode core.DailyBudgetMode `json:"dailyBudgetMode"`
	DaysUntilZero   *int                 `json:"daysUntilZero"`

	WeeklySpent     core.Money `json:"weeklySpent"`
	WeeklyLimit     core.Money `json:"weeklyLimit"`
	WeeklyRemaining core.Money `json:"weeklyRemaining"`
	WeeklyProgress  float64    `json:"weeklyProgress"`
	WeeklyCount     int        `json:"weeklyCount"`

	MonthlySpent     core.Money `json:"monthlySpent"`
	MonthlyLimit     core.Money `json:"monthlyLimit"`
	MonthlyRemaining core.Money `json:"monthlyRemaining"`
	MonthlyProgress  float64    `json:"monthlyProgress"`

	RiskLevel      RiskLevel `json:"riskLevel"`
	RiskPercentage float64   `json:"riskPercentage"`
}

// ComposeSummary runs the whole pipeline for one reference date. settings must
// be present; checking for that is up to the caller.
func ComposeSummary(income []core.Income, expenses []core.Expense, settings core.Settings, ref time.Time) Summary {
	month := MonthWindow(settings, ref)
	week := WeekWindow(settings, ref)

	monthlyIncome := FilterByRange(income, month)
	monthlyExpenses := FilterByRange(expenses, month)
	weeklyExpenses := FilterByRange(expenses, week)

	totalIncome := SumAmounts(monthlyIncome)
	totalExpenses := SumAmounts(monthlyExpenses)
	weeklySpent := SumAmounts(weeklyExpenses)
	balance := totalIncome.Sub(totalExpenses)

	risk := ClassifyRisk(totalExpenses, settings.MonthlyExpenseLimit, settings.Risk)

	return Summary{
		ReferenceDate: core.DateOf(ref),
		Month:         month,
		Week:          week,

		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		Balance:       balance,
		Savings:       balance,
		IncomeCount:   len(monthlyIncome),
		ExpenseCount:  len(monthlyExpenses),

		DailyBudget:     AllocateDailyBudget(balance, settings, ref),
		DailyBudgetMode: settings.DailyBudget.Mode(),
		// Runway looks at the full history, not just this month.
		DaysUntilZero: ProjectRunway(balance, expenses, ref),

		WeeklySpent:     weeklySpent,
		WeeklyLimit:     settings.WeeklyExpenseLimit,
		WeeklyRemaining: Remaining(weeklySpent, settings.WeeklyExpenseLimit),
		WeeklyProgress:  Progress(weeklySpent, settings.WeeklyExpenseLimit),
		WeeklyCount:     len(weeklyExpenses),

		MonthlySpent:     totalExpenses,
		MonthlyLimit:     settings.MonthlyExpenseLimit,
		MonthlyRemaining: Remaining(totalExpenses, settings.MonthlyExpenseLimit),
		MonthlyProgress:  Progress(totalExpenses, settings.MonthlyExpenseLimit),

		RiskLevel:      risk.Level,
		RiskPercentage: risk.Percentage,
	}
}
