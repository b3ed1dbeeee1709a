package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "user-1"

var testBase = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// createTestStorage opens a migrated in-memory database.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTransaction(id, title, amount string, category model.Category, at time.Time) model.Transaction {
	return model.Transaction{
		ID:       id,
		OwnerID:  testOwner,
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     at,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spicewatch.db")
	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	assert.Equal(t, path, store.Path())

	_, err = NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestTimeEncodingSortsLexically(t *testing.T) {
	early := formatTime(time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("EST", -5*3600)))
	late := formatTime(time.Date(2026, 1, 2, 3, 4, 5, 7, time.FixedZone("EST", -5*3600)))
	assert.Less(t, early, late)
	assert.Len(t, early, len(timeLayout))

	parsed, err := parseTime(early)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2026, 1, 2, 8, 4, 5, 6, time.UTC)))
}
