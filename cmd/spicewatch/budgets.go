package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/cli"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage spending budgets",
	}
	cmd.AddCommand(budgetsAddCmd())
	cmd.AddCommand(budgetsListCmd())
	cmd.AddCommand(budgetsDisableCmd())
	return cmd
}

func budgetsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <category> <limit>",
		Short: "Create a budget for a category, or \"all\" for total spending",
		Long: `Create a budget. The period defaults to the current calendar month.

Examples:
  spicewatch budgets add food 500
  spicewatch budgets add all 2500 --start 2026-10-01 --end 2026-12-31`,
		Args: cobra.ExactArgs(2),
		RunE: runBudgetsAdd,
	}
	cmd.Flags().String("start", "", "first day of the budget period")
	cmd.Flags().String("end", "", "last day of the budget period")
	return cmd
}

func runBudgetsAdd(cmd *cobra.Command, args []string) error {
	category := strings.TrimSpace(args[0])
	if !strings.EqualFold(category, model.AllCategories) {
		c, err := model.ParseCategory(category)
		if err != nil {
			return err
		}
		category = string(c)
	}

	limit, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid limit %q: %w", args[1], err)
	}

	start, end, err := budgetPeriod(cmd, time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	budget := &model.Budget{
		ID:        uuid.NewString(),
		OwnerID:   ownerID(),
		Category:  category,
		Limit:     limit,
		StartDate: start,
		EndDate:   end,
		Active:    true,
	}
	if err := store.SaveBudget(ctx, budget); err != nil {
		return err
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Budget of %s for %s created", limit.StringFixed(2), category)),
		"id", budget.ID,
		"from", start.Format(time.DateOnly),
		"to", end.Format(time.DateOnly))
	return nil
}

// budgetPeriod reads --start/--end, defaulting to the calendar month of now.
// The end day is inclusive through its last instant.
func budgetPeriod(cmd *cobra.Command, now time.Time) (time.Time, time.Time, error) {
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var err error
	if startStr != "" {
		if start, err = parseDate(startStr); err != nil {
			return start, end, err
		}
	}
	if endStr != "" {
		if end, err = parseDate(endStr); err != nil {
			return start, end, err
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("budget ends (%s) before it starts (%s)", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}

func budgetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budgets, err := store.ListBudgets(ctx, ownerID())
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No budgets configured"))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBudgetTable(budgets))
			return err
		},
	}
}

func budgetsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <budget-id>",
		Short: "Deactivate a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetBudgetActive(ctx, args[0], false); err != nil {
				return err
			}
			slog.Info(cli.FormatSuccess("Budget disabled"), "id", args[0])
			return nil
		},
	}
}
