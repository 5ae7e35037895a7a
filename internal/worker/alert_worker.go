// Package worker reacts to ledger events published by the API.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Summarizer is the part of services.SummaryService the worker needs.
type Summarizer interface {
	Summary(ctx context.Context, ownerID string, ref *time.Time) (finance.Summary, error)
	Invalidate(ownerID string)
}

// Alert describes why an owner's budget needs attention.
type Alert struct {
	OwnerID        string
	RiskLevel      finance.RiskLevel
	RiskPercentage float64
	DaysUntilZero  *int
	Reasons        []string
}

// AlertWorker recomputes an owner's summary after each change and logs a
// warning when spending is at high or critical risk or the runway is short.
type AlertWorker struct {
	summaries       Summarizer
	runwayAlertDays int
	logger          *log.Logger
}

// NewAlertWorker builds the worker. runwayAlertDays <= 0 disables runway alerts.
func NewAlertWorker(summaries Summarizer, runwayAlertDays int, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.FromDefault(log.ComponentWorker)
	}
	return &AlertWorker{summaries: summaries, runwayAlertDays: runwayAlertDays, logger: logger}
}

// HandleEvent returns the alert raised for ev, or nil when none is due.
// Owners without settings are skipped without error.
func (w *AlertWorker) HandleEvent(ctx context.Context, ev amqp.LedgerEvent) (*Alert, error) {
	w.summaries.Invalidate(ev.OwnerID)

	sum, err := w.summaries.Summary(ctx, ev.OwnerID, nil)
	if errors.Is(err, services.ErrSettingsNotConfigured) {
		w.logger.DebugContext(ctx, "Skipping owner without settings", log.FieldOwnerID, ev.OwnerID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compute summary: %w", err)
	}

	alert := w.evaluate(ev.OwnerID, sum)
	if alert == nil {
		return nil, nil
	}

	fields := log.NewFields().
		WithOwner(ev.OwnerID).
		WithEntity(string(ev.Kind), ev.EntityID).
		WithRisk(string(sum.RiskLevel), sum.RiskPercentage).
		WithRunway(sum.DaysUntilZero).
		ToSlice()
	w.logger.WarnContext(ctx, "Budget alert", append(fields, "reasons", alert.Reasons)...)
	return alert, nil
}

// Handle adapts HandleEvent to the AMQP consumer callback.
func (w *AlertWorker) Handle(ctx context.Context, ev amqp.LedgerEvent) error {
	_, err := w.HandleEvent(ctx, ev)
	return err
}

func (w *AlertWorker) evaluate(ownerID string, sum finance.Summary) *Alert {
	var reasons []string
	switch sum.RiskLevel {
	case finance.RiskHigh, finance.RiskCritical:
		reasons = append(reasons, fmt.Sprintf("monthly spending at %.1f%% of limit (%s)", sum.RiskPercentage, sum.RiskLevel))
	}
	if w.runwayAlertDays > 0 && sum.DaysUntilZero != nil && *sum.DaysUntilZero < w.runwayAlertDays {
		reasons = append(reasons, fmt.Sprintf("balance runs out in %d days", *sum.DaysUntilZero))
	}
	if len(reasons) == 0 {
		return nil
	}
	return &Alert{
		OwnerID:        ownerID,
		RiskLevel:      sum.RiskLevel,
		RiskPercentage: sum.RiskPercentage,
		DaysUntilZero:  sum.DaysUntilZero,
		Reasons:        reasons,
	}
}
