package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a single transaction and inspect it",
		Long: `Record one expense and immediately run anomaly detection against it.

Examples:
  spicewatch add --title "Netflix" --amount 9.99 --category entertainment
  spicewatch add --title "Corner Store" --amount 42.10 --category food --date "2026-10-17 03:12"`,
		Args: cobra.NoArgs,
		RunE: runAdd,
	}

	cmd.Flags().String("title", "", "merchant or payee (required)")
	cmd.Flags().String("amount", "", "amount spent, positive (required)")
	cmd.Flags().String("category", string(model.CategoryOther), "category: "+categoryNames())
	cmd.Flags().String("description", "", "free-form description")
	cmd.Flags().String("date", "", "when the transaction happened (default: now)")
	cmd.Flags().String("id", "", "transaction id (default: generated)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	txn, err := transactionFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inserted, err := store.SaveTransactions(ctx, []model.Transaction{txn})
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	if len(inserted) == 0 {
		return fmt.Errorf("transaction %s already exists", txn.ID)
	}

	engine, err := initEngine(ctx, store)
	if err != nil {
		return err
	}

	return reportAnomalies(cmd, engine.RunDetection(ctx, inserted[0], txn.OwnerID))
}

func transactionFromFlags(cmd *cobra.Command) (model.Transaction, error) {
	title, _ := cmd.Flags().GetString("title")
	amountStr, _ := cmd.Flags().GetString("amount")
	categoryStr, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	dateStr, _ := cmd.Flags().GetString("date")
	id, _ := cmd.Flags().GetString("id")

	if strings.TrimSpace(title) == "" {
		return model.Transaction{}, errors.New("title must not be empty")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if !amount.IsPositive() {
		return model.Transaction{}, errors.New("amount must be positive")
	}
	category, err := model.ParseCategory(categoryStr)
	if err != nil {
		return model.Transaction{}, err
	}

	date := time.Now()
	if dateStr != "" {
		if date, err = parseDate(dateStr); err != nil {
			return model.Transaction{}, err
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	return model.Transaction{
		ID:          id,
		OwnerID:     ownerID(),
		Title:       strings.TrimSpace(title),
		Description: description,
		Category:    category,
		Amount:      amount,
		Date:        date,
	}, nil
}

func categoryNames() string {
	names := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
