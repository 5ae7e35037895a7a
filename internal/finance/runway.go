package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RunwayDays is both the trailing window length and the averaging divisor.
const RunwayDays = 30

// RunwayWindow covers the calendar days [ref-30, ref].
func RunwayWindow(ref time.Time) Window {
	today := core.DateOf(ref)
	return Window{
		Start: startOfDay(today.AddDays(-RunwayDays)),
		End:   endOfDay(today),
	}
}

// ProjectRunway estimates how many whole days balance lasts at the average
// daily spend of the trailing window. It returns 0 when balance is not
// positive and nil when there is not enough data: no expenses in the window,
// or expenses that sum to zero.
func ProjectRunway(balance core.Money, expenses []core.Expense, ref time.Time) *int {
	if !balance.IsPositive() {
		days := 0
		return &days
	}

	recent := FilterByRange(expenses, RunwayWindow(ref))
	if len(recent) == 0 {
		return nil
	}
	total := SumAmounts(recent)
	if total.IsZero() {
		return nil
	}

	// floor(balance / (total/30)) == floor(balance*30 / total), done exactly.
	q, _ := balance.Decimal().Mul(decimal.NewFromInt(RunwayDays)).QuoRem(total.Decimal(), 0)
	n := q.IntPart()
	if n > math.MaxInt {
		n = math.MaxInt
	}
	days := int(n)
	return &days
}

// DaysRemaining counts the days left in the month window containing ref,
// today included, never less than 1.
func DaysRemaining(settings core.Settings, ref time.Time) int {
	w := MonthWindow(settings, ref)
	today := startOfDay(core.DateOf(ref))
	last := startOfDay(core.DateOf(w.End))

	days := int(math.Ceil(last.Sub(today).Hours()/24)) + 1
	return max(1, days)
}

// AllocateDailyBudget suggests a per-day allowance. A fixed policy returns its
// amount untouched; a calculated one spreads a positive balance over
// DaysRemaining and never goes below zero.
func AllocateDailyBudget(balance core.Money, settings core.Settings, ref time.Time) core.Money {
	if amount, fixed := settings.DailyBudget.Amount(); fixed {
		return amount
	}
	if !balance.IsPositive() {
		return core.Zero
	}
	return balance.DivInt(int64(DaysRemaining(settings, ref)))
}
