package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/cli"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/spf13/cobra"
)

func anomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "anomalies [id]",
		Aliases: []string{"ls"},
		Short:   "List detected anomalies, or show one in detail",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runAnomalies,
	}

	cmd.Flags().String("status", "", "filter by status (pending, reviewed, dismissed, confirmed)")
	cmd.Flags().String("type", "", "filter by anomaly type, e.g. spending-spike")
	cmd.Flags().String("since", "", "only anomalies detected on or after this date")
	cmd.Flags().Int("limit", 50, "maximum number of anomalies to show (0 for all)")

	return cmd
}

func runAnomalies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		a, err := store.GetAnomaly(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAnomaly(*a))
		return err
	}

	filter, err := anomalyFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	anomalies, err := store.ListAnomalies(ctx, filter)
	if err != nil {
		return err
	}
	if len(anomalies) == 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No anomalies found"))
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAnomalyTable(anomalies))
	return err
}

func anomalyFilterFromFlags(cmd *cobra.Command) (service.AnomalyFilter, error) {
	statusStr, _ := cmd.Flags().GetString("status")
	typeStr, _ := cmd.Flags().GetString("type")
	sinceStr, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.AnomalyFilter{OwnerID: ownerID(), Limit: limit}
	if statusStr != "" {
		status, err := model.ParseAnomalyStatus(statusStr)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if typeStr != "" {
		typ, err := model.ParseAnomalyType(typeStr)
		if err != nil {
			return filter, err
		}
		filter.Type = typ
	}
	if sinceStr != "" {
		since, err := parseDate(sinceStr)
		if err != nil {
			return filter, err
		}
		filter.Since = &since
	}
	return filter, nil
}

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <anomaly-id>",
		Short: "Show the review history of an anomaly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ListAudit(ctx, model.AuditResourceAnomaly, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No audit entries"))
				return err
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %-18s %-10s %v -> %v\n",
					e.Timestamp.Local().Format(time.DateTime), e.Action, e.Actor,
					e.Before["status"], e.After["status"]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
