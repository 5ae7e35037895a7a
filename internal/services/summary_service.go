package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// ErrSettingsNotConfigured is returned when an owner has no settings yet.
// Summaries depend on the anchors and limits stored there.
var ErrSettingsNotConfigured = errors.New("settings not configured")

// Reader is the read side of the record store used to build summaries.
type Reader interface {
	store.CategoryStore
	store.IncomeStore
	store.ExpenseStore
	store.SettingsStore
}

// Report is a summary together with the settings it was computed from.
type Report struct {
	Summary  finance.Summary
	Settings core.Settings
}

// SummaryService loads an owner's ledger and runs the finance engine over it.
type SummaryService struct {
	store  Reader
	engine *finance.Engine
	cache  cache.Cache[Report]
	logger *log.Logger
}

// NewSummaryService builds the service. A nil cache disables memoization.
func NewSummaryService(st Reader, engine *finance.Engine, c cache.Cache[Report], logger *log.Logger) *SummaryService {
	if engine == nil {
		engine = finance.NewEngine(nil)
	}
	if logger == nil {
		logger = log.FromDefault(log.ComponentSummary)
	}
	return &SummaryService{store: st, engine: engine, cache: c, logger: logger}
}

type ledger struct {
	settings   core.Settings
	income     []core.Income
	expenses   []core.Expense
	categories []core.Category
}

// load fetches settings, income and expenses concurrently; categories only
// when asked.
func (s *SummaryService) load(ctx context.Context, ownerID string, withCategories bool) (ledger, error) {
	var l ledger
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st, err := s.store.GetSettings(ctx, ownerID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSettingsNotConfigured
		}
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		l.settings = st
		return nil
	})
	g.Go(func() error {
		in, err := s.store.ListIncome(ctx, ownerID, store.Query{})
		if err != nil {
			return fmt.Errorf("load income: %w", err)
		}
		l.income = in
		return nil
	})
	g.Go(func() error {
		ex, err := s.store.ListExpenses(ctx, ownerID, store.Query{})
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		l.expenses = ex
		return nil
	})
	if withCategories {
		g.Go(func() error {
			cats, err := s.store.ListCategories(ctx, ownerID, store.Query{})
			if err != nil {
				return fmt.Errorf("load categories: %w", err)
			}
			l.categories = cats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ledger{}, err
	}
	return l, nil
}

func cacheKey(ownerID string, ref time.Time) string {
	return ownerPrefix(ownerID) + core.DateOf(ref).String()
}

func ownerPrefix(ownerID string) string { return ownerID + "|" }

// Summary returns the financial summary for ownerID at ref, or at the
// engine's clock when ref is nil.
func (s *SummaryService) Summary(ctx context.Context, ownerID string, ref *time.Time) (finance.Summary, error) {
	r, err := s.Report(ctx, ownerID, ref)
	return r.Summary, err
}

// Report is Summary plus the owner's settings, served from the same cache
// entry.
func (s *SummaryService) Report(ctx context.Context, ownerID string, ref *time.Time) (Report, error) {
	if ownerID == "" {
		return Report{}, core.ErrMissingOwner
	}
	at := s.engine.Reference(ref)
	key := cacheKey(ownerID, at)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	l, err := s.load(ctx, ownerID, false)
	if err != nil {
		return Report{}, err
	}

	sum := finance.ComposeSummary(l.income, l.expenses, l.settings, at)
	r := Report{Summary: sum, Settings: l.settings}
	if s.cache != nil {
		s.cache.Set(key, r)
	}

	s.logger.DebugContext(ctx, "Summary computed", log.NewFields().
		WithOwner(ownerID).
		WithOperation(log.OpCompute).
		WithAmount(sum.Balance).
		WithRisk(string(sum.RiskLevel), sum.RiskPercentage).
		WithRunway(sum.DaysUntilZero).
		ToSlice()...)
	return r, nil
}

// CategoryBreakdown groups the month window's expenses by category.
func (s *SummaryService) CategoryBreakdown(ctx context.Context, ownerID string, ref *time.Time) (finance.Breakdown, error) {
	if ownerID == "" {
		return finance.Breakdown{}, core.ErrMissingOwner
	}
	l, err := s.load(ctx, ownerID, true)
	if err != nil {
		return finance.Breakdown{}, err
	}
	return s.engine.CategoryBreakdown(l.expenses, l.categories, l.settings, ref), nil
}

// WeeklyTotals returns one entry per day of the week window.
func (s *SummaryService) WeeklyTotals(ctx context.Context, ownerID string, ref *time.Time) ([]finance.DailyTotal, error) {
	if ownerID == "" {
		return nil, core.ErrMissingOwner
	}
	l, err := s.load(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}
	return s.engine.WeeklyTotals(l.expenses, l.settings, ref), nil
}

// Invalidate drops every cached summary of ownerID.
func (s *SummaryService) Invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(ownerPrefix(ownerID)); n > 0 {
		s.logger.Debug("Summary cache invalidated", log.FieldOwnerID, ownerID, "entries", n)
	}
}
