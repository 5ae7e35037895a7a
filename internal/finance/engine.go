package finance

import (
	"time"

	"fintrack/internal/core"
)

// Clock supplies the reference date when a caller does not pass one.
type Clock func() time.Time

// Engine binds the pure calculations to a clock.
type Engine struct {
	Clock Clock
}

// NewEngine returns an Engine using clock, or time.Now when clock is nil.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{Clock: clock}
}

// Reference returns *ref when set, otherwise the clock's current time.
func (e *Engine) Reference(ref *time.Time) time.Time {
	if ref != nil {
		return *ref
	}
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

func (e *Engine) Summary(income []core.Income, expenses []core.Expense, settings core.Settings, ref *time.Time) Summary {
	return ComposeSummary(income, expenses, settings, e.Reference(ref))
}

func (e *Engine) CategoryBreakdown(expenses []core.Expense, categories []core.Category, settings core.Settings, ref *time.Time) Breakdown {
	w := MonthWindow(settings, e.Reference(ref))
	return Breakdown{
		Categories: GroupExpensesByCategory(expenses, categories, w),
		Unassigned: UnassignedTotals(expenses, categories, w),
	}
}

func (e *Engine) WeeklyTotals(expenses []core.Expense, settings core.Settings, ref *time.Time) []DailyTotal {
	return DailyTotals(expenses, WeekWindow(settings, e.Reference(ref)))
}
