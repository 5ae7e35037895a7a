package finance

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk is the classification of a spent/limit ratio. Percentage is not clamped.
type Risk struct {
	Level      RiskLevel `json:"level"`
	Percentage float64   `json:"percentage"`
}

// Tier buckets a progress percentage for display.
type Tier string

const (
	TierUnder50 Tier = "under50"
	TierUnder75 Tier = "under75"
	TierUnder90 Tier = "under90"
	TierOver90  Tier = "over90"
)

var hundred = decimal.NewFromInt(100)

// Usage returns 100 * spent / limit computed exactly and converted to float64.
// A zero limit yields 0.
func Usage(spent, limit core.Money) float64 {
	if limit.IsZero() {
		return 0
	}
	pct, _ := spent.Decimal().Mul(hundred).Div(limit.Decimal()).Float64()
	return pct
}

// ClassifyRisk maps spent against limit onto a risk level. A zero limit means
// no risk. Thresholds are inclusive lower bounds; 100% and above is always
// critical.
func ClassifyRisk(spent, limit core.Money, t core.RiskThresholds) Risk {
	if limit.IsZero() {
		return Risk{Level: RiskLow, Percentage: 0}
	}

	pct := Usage(spent, limit)
	level := RiskLow
	switch {
	case pct >= 100:
		level = RiskCritical
	case pct >= t.High:
		level = RiskHigh
	case pct >= t.Medium:
		level = RiskMedium
	}
	return Risk{Level: level, Percentage: pct}
}

// Progress is Usage clamped to 100, or 0 when no positive limit is set.
func Progress(spent, limit core.Money) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return min(100, Usage(spent, limit))
}

// Remaining is max(0, limit - spent).
func Remaining(spent, limit core.Money) core.Money {
	return limit.Sub(spent).Max(core.Zero)
}

// ProgressTier buckets a progress percentage at 50, 75 and 90.
func ProgressTier(pct float64) Tier {
	switch {
	case pct < 50:
		return TierUnder50
	case pct < 75:
		return TierUnder75
	case pct < 90:
		return TierUnder90
	default:
		return TierOver90
	}
}
