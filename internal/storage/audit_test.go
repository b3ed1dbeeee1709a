package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_AppendOnly(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	entry := model.AuditEntry{
		ID:           "e1",
		Timestamp:    testBase,
		Actor:        "alex",
		Action:       "BUDGET_CREATED",
		ResourceType: "budget",
		ResourceID:   "b1",
		After:        map[string]any{"limit": "500"},
	}
	require.NoError(t, store.AppendAudit(ctx, entry))

	_, err := store.db.ExecContext(ctx, `UPDATE audit_log SET actor = 'mallory' WHERE id = 'e1'`)
	assert.ErrorContains(t, err, "immutable")

	_, err = store.db.ExecContext(ctx, `DELETE FROM audit_log WHERE id = 'e1'`)
	assert.ErrorContains(t, err, "immutable")

	entries, err := store.ListAudit(ctx, "budget", "b1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alex", entries[0].Actor)
	assert.Nil(t, entries[0].Before)
	assert.Equal(t, map[string]any{"limit": "500"}, entries[0].After)

	assert.Error(t, store.AppendAudit(ctx, entry), "ids are unique")

	missingActor := entry
	missingActor.ID = "e2"
	missingActor.Actor = ""
	assert.ErrorIs(t, store.AppendAudit(ctx, missingActor), ErrInvalidAudit)
}
