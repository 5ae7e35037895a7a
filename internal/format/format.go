// Package format renders engine results for people: grouped amounts in the
// owner's currency, percentages and runway phrases in a display locale.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

// Formatter is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
}

// New builds a formatter for a BCP 47 locale and an ISO 4217 currency code.
func New(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCurrency, currencyCode)
	}
	return &Formatter{tag: tag, unit: unit, printer: message.NewPrinter(tag)}, nil
}

// Locale returns the display locale.
func (f *Formatter) Locale() string { return f.tag.String() }

// Currency returns the ISO code amounts are labelled with.
func (f *Formatter) Currency() string { return f.unit.String() }

// Number renders m with locale grouping and two decimals.
func (f *Formatter) Number(m core.Money) string {
	return f.printer.Sprint(number.Decimal(m.Float64(), number.Scale(2)))
}

// Money renders m with its currency code, e.g. "EUR 1,234.50".
func (f *Formatter) Money(m core.Money) string {
	return f.unit.String() + " " + f.Number(m)
}

// Percent renders a percentage value (52.94 means 52.94%) with one decimal.
func (f *Formatter) Percent(pct float64) string {
	return f.printer.Sprint(number.Decimal(pct, number.Scale(1))) + "%"
}

// Runway renders a days-until-zero projection.
func (f *Formatter) Runway(days *int) string {
	switch {
	case days == nil:
		return "not enough data"
	case *days == 1:
		return "1 day"
	default:
		return f.printer.Sprintf("%d days", *days)
	}
}

// Display is the human-readable companion of a finance.Summary.
type Display struct {
	Locale           string `json:"locale"`
	Currency         string `json:"currency"`
	TotalIncome      string `json:"totalIncome"`
	TotalExpenses    string `json:"totalExpenses"`
	Balance          string `json:"balance"`
	DailyBudget      string `json:"dailyBudget"`
	WeeklyRemaining  string `json:"weeklyRemaining"`
	MonthlyRemaining string `json:"monthlyRemaining"`
	WeeklyProgress   string `json:"weeklyProgress"`
	MonthlyProgress  string `json:"monthlyProgress"`
	Risk             string `json:"risk"`
	Runway           string `json:"runway"`
	Period           string `json:"period"`
}

// Summary formats every amount and ratio of s.
func (f *Formatter) Summary(s finance.Summary) Display {
	return Display{
		Locale:           f.Locale(),
		Currency:         f.Currency(),
		TotalIncome:      f.Money(s.TotalIncome),
		TotalExpenses:    f.Money(s.TotalExpenses),
		Balance:          f.Money(s.Balance),
		DailyBudget:      f.Money(s.DailyBudget),
		WeeklyRemaining:  f.Money(s.WeeklyRemaining),
		MonthlyRemaining: f.Money(s.MonthlyRemaining),
		WeeklyProgress:   f.Percent(s.WeeklyProgress),
		MonthlyProgress:  f.Percent(s.MonthlyProgress),
		Risk:             fmt.Sprintf("%s (%s)", s.RiskLevel, f.Percent(s.RiskPercentage)),
		Runway:           f.Runway(s.DaysUntilZero),
		Period:           Period(s.Month),
	}
}

// Period renders a window as "2024-03-01 to 2024-03-31".
func Period(w finance.Window) string {
	return w.Start.Format("2006-01-02") + " to " + w.End.Format("2006-01-02")
}
