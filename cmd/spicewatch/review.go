package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/spicewatch/internal/cli"
	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/Veraticus/spicewatch/internal/storage"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review [anomaly-id]",
		Short: "Confirm or dismiss detected anomalies",
		Long: `Record a review decision for an anomaly. Every decision is written to the
audit log.

With an anomaly id and --status the decision is recorded directly. Without
arguments each pending anomaly is shown in turn and you are asked what to do.

Examples:
  spicewatch review 3f2a9c1e-... --status dismissed --note "annual insurance"
  spicewatch review`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReview,
	}

	cmd.Flags().String("status", "", "decision: reviewed, dismissed or confirmed")
	cmd.Flags().String("note", "", "resolution note")
	cmd.Flags().String("actor", "", "who made the decision (default: owner)")

	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	statusStr, _ := cmd.Flags().GetString("status")
	note, _ := cmd.Flags().GetString("note")
	actor, _ := cmd.Flags().GetString("actor")
	if actor == "" {
		actor = ownerID()
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		if statusStr == "" {
			return errors.New("--status is required when reviewing a single anomaly")
		}
		status, err := model.ParseAnomalyStatus(statusStr)
		if err != nil {
			return err
		}
		if !status.IsResolution() {
			return fmt.Errorf("%w: %s is not a review decision", common.ErrInvalidTransition, status)
		}
		resolved, err := store.ResolveAnomaly(ctx, args[0], status, note, actor, time.Now())
		if err != nil {
			return err
		}
		slog.Info(cli.FormatSuccess(fmt.Sprintf("Anomaly marked %s", resolved.Status)))
		return nil
	}

	return reviewInteractively(cmd, store, actor)
}

func reviewInteractively(cmd *cobra.Command, store *storage.SQLiteStorage, actor string) error {
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Review interrupted")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	pending, err := store.ListAnomalies(ctx, service.AnomalyFilter{OwnerID: ownerID(), Status: model.StatusPending})
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info(cli.FormatSuccess("Nothing to review"))
		return nil
	}

	prompter := cli.NewReviewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	reviewed := 0
	for _, a := range pending {
		decision, err := prompter.Ask(ctx, a)
		if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) || interrupts.WasInterrupted() {
			break
		}
		if err != nil {
			return err
		}
		if decision.Quit {
			break
		}
		if decision.Skip {
			continue
		}
		if _, err := store.ResolveAnomaly(ctx, a.ID, decision.Status, decision.Note, actor, time.Now()); err != nil {
			return err
		}
		reviewed++
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Reviewed %d of %d pending anomalies", reviewed, len(pending))))
	return nil
}
