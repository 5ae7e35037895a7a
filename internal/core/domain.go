package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	IncomeCategory  CategoryType = "income"
	ExpenseCategory CategoryType = "expense"
)

const (
	DailyBudgetFixed      DailyBudgetMode = "fixed"
	DailyBudgetCalculated DailyBudgetMode = "calculated"
)

// UnknownCategoryName labels transactions whose category reference no longer resolves.
const UnknownCategoryName = "Unknown"

type (
	CategoryType    string
	DailyBudgetMode string

	// Transaction is the shape shared by income and expense entries.
	// A nil CategoryID means uncategorized.
	Transaction struct {
		ID          string  `json:"id"`
		OwnerID     string  `json:"owner_id"`
		CategoryID  *string `json:"category_id"`
		Amount      Money   `json:"amount"`
		Date        Date    `json:"date"`
		Description string  `json:"description"`
		Notes       string  `json:"notes"`
	}

	Income struct {
		Transaction
	}

	Expense struct {
		Transaction
		Recurring bool `json:"is_recurring"`
	}

	Category struct {
		ID          string       `json:"id"`
		OwnerID     string       `json:"owner_id"`
		Name        string       `json:"name"`
		Type        CategoryType `json:"type"`
		BudgetLimit Money        `json:"budget_limit"` // zero means no limit
		Color       string       `json:"color"`
		Icon        string       `json:"icon"`
		Active      bool         `json:"is_active"`
	}

	// RiskThresholds are percentages. Each value is the lower bound at which the
	// named tier begins; Low is carried for display and is implicitly 0.
	RiskThresholds struct {
		Low    float64 `json:"low"`
		Medium float64 `json:"medium"`
		High   float64 `json:"high"`
	}

	Settings struct {
		ID                  string            `json:"id"`
		OwnerID             string            `json:"owner_id"`
		Currency            string            `json:"currency"`
		MonthlyIncomeTarget Money             `json:"monthly_income_target"` // display only
		MonthlyExpenseLimit Money             `json:"monthly_expense_limit"`
		WeeklyExpenseLimit  Money             `json:"weekly_expense_limit"`
		DailyBudget         DailyBudgetPolicy `json:"daily_budget"`
		Risk                RiskThresholds    `json:"risk_thresholds"`
		StartOfMonth        int               `json:"start_of_month"` // 1-31
		StartOfWeek         int               `json:"start_of_week"`  // 0-6, 0 = Sunday
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrMissingOwner         = errors.New("missing owner id")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	ErrInvalidAnchorDay     = errors.New("invalid anchor day")
	ErrInvalidThresholds    = errors.New("invalid risk thresholds")
	ErrInvalidBudgetMode    = errors.New("invalid daily budget mode")
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrFieldTooLong         = errors.New("field too long")
)

// DailyBudgetPolicy selects how the suggested daily spend is derived. The zero
// value is the calculated policy.
type DailyBudgetPolicy struct {
	fixed  bool
	amount Money
}

// FixedDailyBudget always suggests amount, whatever the balance.
func FixedDailyBudget(amount Money) DailyBudgetPolicy {
	return DailyBudgetPolicy{fixed: true, amount: amount}
}

// CalculatedDailyBudget spreads the positive balance over the remaining days of the month window.
func CalculatedDailyBudget() DailyBudgetPolicy {
	return DailyBudgetPolicy{}
}

// ParseDailyBudgetPolicy builds a policy from the stored mode string and fixed amount.
func ParseDailyBudgetPolicy(mode string, fixedAmount Money) (DailyBudgetPolicy, error) {
	switch DailyBudgetMode(strings.TrimSpace(mode)) {
	case DailyBudgetFixed:
		return FixedDailyBudget(fixedAmount), nil
	case DailyBudgetCalculated, "":
		return CalculatedDailyBudget(), nil
	default:
		return DailyBudgetPolicy{}, fmt.Errorf("%w: %q", ErrInvalidBudgetMode, mode)
	}
}

func (p DailyBudgetPolicy) Mode() DailyBudgetMode {
	if p.fixed {
		return DailyBudgetFixed
	}
	return DailyBudgetCalculated
}

func (p DailyBudgetPolicy) IsFixed() bool { return p.fixed }

// Amount returns the fixed amount and whether the policy is fixed.
func (p DailyBudgetPolicy) Amount() (Money, bool) {
	return p.amount, p.fixed
}

// FixedAmountOrZero is the value persisted in the fixed amount column.
func (p DailyBudgetPolicy) FixedAmountOrZero() Money {
	if p.fixed {
		return p.amount
	}
	return Zero
}

type dailyBudgetJSON struct {
	Mode        DailyBudgetMode `json:"mode"`
	FixedAmount *Money          `json:"fixed_amount,omitempty"`
}

func (p DailyBudgetPolicy) MarshalJSON() ([]byte, error) {
	out := dailyBudgetJSON{Mode: p.Mode()}
	if p.fixed {
		amt := p.amount
		out.FixedAmount = &amt
	}
	return json.Marshal(out)
}

func (p *DailyBudgetPolicy) UnmarshalJSON(data []byte) error {
	var in dailyBudgetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Mode == DailyBudgetFixed && in.FixedAmount == nil {
		return fmt.Errorf("%w: fixed mode requires fixed_amount", ErrInvalidBudgetMode)
	}
	amt := Zero
	if in.FixedAmount != nil {
		amt = *in.FixedAmount
	}
	policy, err := ParseDailyBudgetPolicy(string(in.Mode), amt)
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// DefaultSettings mirrors the values a fresh settings form starts with.
func DefaultSettings(ownerID string) Settings {
	return Settings{
		OwnerID:     ownerID,
		Currency:    "USD",
		DailyBudget: CalculatedDailyBudget(),
		Risk: RiskThresholds{
			Low:    50,
			Medium: 75,
			High:   90,
		},
		StartOfMonth: 1,
		StartOfWeek:  1,
	}
}

// Record returns the shared transaction fields. Income and Expense inherit it
// through embedding, which lets generic helpers treat both alike.
func (t Transaction) Record() Transaction { return t }

func (c CategoryType) IsValid() bool {
	return c == IncomeCategory || c == ExpenseCategory
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID != nil && strings.TrimSpace(*t.CategoryID) == "" {
		return fmt.Errorf("%w: category id cannot be blank", ErrEmptyName)
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description (max 200 characters)", ErrFieldTooLong)
	}
	if len(t.Notes) > 2000 {
		return fmt.Errorf("%w: notes (max 2000 characters)", ErrFieldTooLong)
	}
	return nil
}

// CheckCategory verifies that c may be referenced by a transaction of type want.
func CheckCategory(c Category, want CategoryType) error {
	if c.Type != want {
		return fmt.Errorf("%w: category %q is %s, transaction is %s", ErrCategoryTypeMismatch, c.Name, c.Type, want)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("%w: name (max 100 characters)", ErrFieldTooLong)
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategoryType, c.Type)
	}
	if err := c.BudgetLimit.Validate(); err != nil {
		return fmt.Errorf("budget limit: %w", err)
	}
	return nil
}

func (r RiskThresholds) Validate() error {
	if r.Low < 0 || r.Medium < 0 || r.High < 0 {
		return fmt.Errorf("%w: thresholds must be non-negative", ErrInvalidThresholds)
	}
	if !(r.Low < r.Medium && r.Medium < r.High) {
		return fmt.Errorf("%w: expected low < medium < high, got %v < %v < %v", ErrInvalidThresholds, r.Low, r.Medium, r.High)
	}
	return nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return ErrMissingOwner
	}
	if len(strings.TrimSpace(s.Currency)) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, s.Currency)
	}
	if s.StartOfMonth < 1 || s.StartOfMonth > 31 {
		return fmt.Errorf("%w: start of month %d", ErrInvalidAnchorDay, s.StartOfMonth)
	}
	if s.StartOfWeek < 0 || s.StartOfWeek > 6 {
		return fmt.Errorf("%w: start of week %d", ErrInvalidAnchorDay, s.StartOfWeek)
	}
	for name, m := range map[string]Money{
		"monthly income target": s.MonthlyIncomeTarget,
		"monthly expense limit": s.MonthlyExpenseLimit,
		"weekly expense limit":  s.WeeklyExpenseLimit,
		"fixed daily budget":    s.DailyBudget.FixedAmountOrZero(),
	} {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return s.Risk.Validate()
}

var validationErrors = []error{
	ErrInvalidAmount, ErrInvalidDate, ErrMissingOwner, ErrEmptyName, ErrInvalidCategoryType,
	ErrCategoryTypeMismatch, ErrInvalidAnchorDay, ErrInvalidThresholds, ErrInvalidBudgetMode,
	ErrInvalidCurrency, ErrFieldTooLong,
}

// IsValidation reports whether err stems from rejected input rather than a failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
