package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/spicewatch/internal/cli"
	"github.com/Veraticus/spicewatch/internal/config"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/ofx"
	"github.com/Veraticus/spicewatch/internal/pattern"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import OFX/QFX statements and inspect new transactions",
		Long: `Import debit transactions from OFX or QFX files exported from your bank.
Every transaction not seen before is stored and run through anomaly detection.

Examples:
  # Import a single statement
  spicewatch import ~/Downloads/checking_oct.qfx

  # Import every statement in a directory
  spicewatch import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Parse and categorize without saving or detecting")
	cmd.Flags().Bool("skip-detection", false, "Store transactions without running detection")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipDetection, _ := cmd.Flags().GetBool("skip-detection")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	rules, err := config.CategoryRules(viper.GetViper())
	if err != nil {
		return err
	}
	matcher, err := pattern.NewMatcher(rules)
	if err != nil {
		return fmt.Errorf("invalid category rules: %w", err)
	}

	owner := ownerID()
	parser := ofx.NewParser(owner, matcher, slog.Default())

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Stopping after the current transaction...")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	var parsed []model.Transaction
	for _, path := range files {
		txns, err := parseStatement(ctx, parser, path)
		if err != nil {
			slog.Error("Failed to import file", "file", filepath.Base(path), "error", err)
			continue
		}
		slog.Info("Parsed statement", "file", filepath.Base(path), "transactions", len(txns))
		parsed = append(parsed, txns...)
	}

	if len(parsed) == 0 {
		slog.Warn(cli.FormatWarning("No debit transactions found"))
		return nil
	}

	if dryRun {
		for _, t := range parsed {
			slog.Info("Would import",
				"date", t.Date.Format("2006-01-02"),
				"title", t.Title,
				"amount", t.Amount.StringFixed(2),
				"category", t.Category)
		}
		slog.Info(cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions parsed, nothing saved", len(parsed))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inserted, err := store.SaveTransactions(ctx, parsed)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d already known)",
		len(inserted), len(parsed)-len(inserted))))

	if skipDetection || len(inserted) == 0 {
		return nil
	}

	engine, err := initEngine(ctx, store)
	if err != nil {
		return err
	}

	var found []model.Anomaly
	progress := cli.NewProgress(cmd.ErrOrStderr(), len(inserted), "Inspecting transactions...")
	for _, txn := range inserted {
		if interrupts.WasInterrupted() {
			break
		}
		found = append(found, engine.RunDetection(ctx, txn, owner)...)
		progress.Step()
	}
	progress.Finish()

	return reportAnomalies(cmd, found)
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(ctx, f)
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(config.ExpandPath(p))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", p, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
			continue
		}
		slog.Warn("No files found matching pattern", "pattern", p)
	}
	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

// reportAnomalies prints a summary of what detection found.
func reportAnomalies(cmd *cobra.Command, anomalies []model.Anomaly) error {
	if len(anomalies) == 0 {
		slog.Info(cli.FormatSuccess("No anomalies detected"))
		return nil
	}
	slog.Warn(cli.FormatWarning(fmt.Sprintf("%d anomalies detected", len(anomalies))))
	_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAnomalyTable(anomalies))
	return err
}
