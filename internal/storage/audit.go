package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/spicewatch/internal/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendAudit appends one entry to the audit log. Stored entries cannot be
// updated or deleted; the schema rejects both.
func (s *SQLiteStorage) AppendAudit(ctx context.Context, entry model.AuditEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return appendAudit(ctx, s.db, entry)
}

func appendAudit(ctx context.Context, db execer, entry model.AuditEntry) error {
	if err := validateAudit(&entry); err != nil {
		return err
	}

	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor, action, resource_type, resource_id, before_state, after_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, formatTime(entry.Timestamp), entry.Actor, entry.Action,
		entry.ResourceType, entry.ResourceID, before, after); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the audit trail of one resource, oldest first.
func (s *SQLiteStorage) ListAudit(ctx context.Context, resourceType, resourceID string) ([]model.AuditEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, actor, action, resource_type, resource_id, before_state, after_state
		FROM audit_log
		WHERE resource_type = ? AND resource_id = ?
		ORDER BY timestamp, id
	`, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			e             model.AuditEntry
			ts            string
			before, after sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &before, &after); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		if e.Before, err = unmarshalSnapshot(before); err != nil {
			return nil, err
		}
		if e.After, err = unmarshalSnapshot(after); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}

func marshalSnapshot(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}
	return string(raw), nil
}

func unmarshalSnapshot(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, fmt.Errorf("failed to decode audit snapshot: %w", err)
	}
	return m, nil
}
