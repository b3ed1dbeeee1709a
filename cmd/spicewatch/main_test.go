package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI points the global configuration at a fresh database.
func setupCLI(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dbPath := filepath.Join(t.TempDir(), "spicewatch.db")
	viper.Set("database.path", dbPath)
	viper.Set("owner", "tester")
	viper.Set("llm.enabled", false)
	viper.Set("logging.level", "error")
	viper.Set("detection.timezone", "UTC")
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("{}\n"), 0o600))
	return dbPath
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := &cobra.Command{Use: "spicewatch", PersistentPreRunE: initConfig, SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestAddDetectsDuplicate(t *testing.T) {
	setupCLI(t)

	execute(t, addCmd(), "add", "--title", "Coffee Shop", "--amount", "4.50", "--category", "food", "--date", "2026-10-17 09:00")
	out := execute(t, addCmd(), "add", "--title", "coffee shop", "--amount", "4.50", "--category", "food", "--date", "2026-10-17 09:03")

	assert.Contains(t, out, "duplicate-transaction")

	listing := execute(t, anomaliesCmd(), "anomalies", "--type", "duplicate-transaction")
	assert.Contains(t, listing, "duplicate-transaction")
}

func TestBudgetsAddAndList(t *testing.T) {
	setupCLI(t)

	execute(t, budgetsCmd(), "budgets", "add", "food", "500", "--start", "2026-10-01", "--end", "2026-10-31")
	out := execute(t, budgetsCmd(), "budgets", "list")

	assert.Contains(t, out, "food")
	assert.Contains(t, out, "500.00")
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local), got)

	got, err = parseDate("2026-10-17T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Hour())

	_, err = parseDate("17/10/2026")
	assert.Error(t, err)
}

func TestBudgetPeriod(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	cmd := budgetsAddCmd()
	start, end, err := budgetPeriod(cmd, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 999999999, time.UTC), end)

	cmd = budgetsAddCmd()
	require.NoError(t, cmd.Flags().Set("start", "2026-03-10"))
	require.NoError(t, cmd.Flags().Set("end", "2026-03-01"))
	_, _, err = budgetPeriod(cmd, now)
	assert.Error(t, err)
}

func TestTransactionFromFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("owner", "tester")

	cmd := addCmd()
	require.NoError(t, cmd.Flags().Set("title", " Netflix "))
	require.NoError(t, cmd.Flags().Set("amount", "9.99"))
	require.NoError(t, cmd.Flags().Set("category", "Entertainment"))

	txn, err := transactionFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", txn.Title)
	assert.Equal(t, "tester", txn.OwnerID)
	assert.Equal(t, "9.99", txn.Amount.String())
	assert.NotEmpty(t, txn.ID)

	require.NoError(t, cmd.Flags().Set("amount", "-3"))
	_, err = transactionFromFlags(cmd)
	assert.Error(t, err)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}
