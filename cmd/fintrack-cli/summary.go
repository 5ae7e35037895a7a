package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/format"
)

// referenceFlag parses --date; empty means today.
func referenceFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("--date: %w", err)
	}
	return &d.Time, nil
}

func summaryCmd(a *app) *cobra.Command {
	var (
		owner  string
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Compute the financial summary for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ref, err := referenceFlag(date)
			if err != nil {
				return err
			}

			be, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Cleanup()

			svc := cli.BuildServices(a.cfg, be, nil, a.logger)
			defer svc.Close()

			report, err := svc.Summaries.Report(ctx, owner, ref)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(report.Summary)
			}

			f, err := format.New(a.cfg.DisplayLocale, report.Settings.Currency)
			if err != nil {
				return errors.Join(errors.New("cannot format summary, use --json"), err)
			}
			d := f.Summary(report.Summary)

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			rows := [][2]string{
				{"Period", d.Period},
				{"Income", d.TotalIncome},
				{"Expenses", d.TotalExpenses},
				{"Balance", d.Balance},
				{"Daily budget", d.DailyBudget},
				{"Weekly remaining", d.WeeklyRemaining + " (" + d.WeeklyProgress + " used)"},
				{"Monthly remaining", d.MonthlyRemaining + " (" + d.MonthlyProgress + " used)"},
				{"Risk", d.Risk},
				{"Runway", d.Runway},
			}
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw summary as JSON")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func breakdownCmd(a *app) *cobra.Command {
	var owner, date string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show spending per expense category in the current budget month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ref, err := referenceFlag(date)
			if err != nil {
				return err
			}

			be, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Cleanup()

			svc := cli.BuildServices(a.cfg, be, nil, a.logger)
			defer svc.Close()

			breakdown, err := svc.Summaries.CategoryBreakdown(ctx, owner, ref)
			if err != nil {
				return err
			}
			if len(breakdown.Categories) == 0 && len(breakdown.Unassigned) == 0 {
				fmt.Fprintln(a.out, "No spending in this period.")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tSPENT\tCOUNT\tBUDGET USED")
			for _, t := range breakdown.Categories {
				used := "-"
				if t.Category.BudgetLimit.IsPositive() {
					used = fmt.Sprintf("%.1f%%", t.Percentage)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.Category.Name, t.Spent, t.Count, used)
			}
			for _, t := range breakdown.Unassigned {
				fmt.Fprintf(w, "%s\t%s\t%d\t-\n", t.Category.Name, t.Spent, t.Count)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&date, "date", "", "reference date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
