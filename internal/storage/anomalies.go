package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/google/uuid"
)

const anomalyColumns = `id, owner_id, transaction_id, type, severity, status, explanation,
	evidence, resolution_note, detected_at, resolved_at`

// InsertAnomalies stores a batch of anomalies atomically.
func (s *SQLiteStorage) InsertAnomalies(ctx context.Context, anomalies []model.Anomaly) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnomalies(anomalies); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO anomalies (`+anomalyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, a := range anomalies {
			evidence, err := model.MarshalEvidence(a.Evidence)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID,
				a.OwnerID,
				nullableString(a.TransactionID),
				string(a.Type),
				string(a.Severity),
				string(a.Status),
				a.Explanation,
				string(evidence),
				nullableString(a.ResolutionNote),
				formatTime(a.DetectedAt),
				nullableTime(a.ResolvedAt),
			); err != nil {
				if strings.Contains(err.Error(), "UNIQUE constraint failed") {
					return fmt.Errorf("anomaly %s: %w", a.ID, common.ErrDuplicateEntry)
				}
				return fmt.Errorf("failed to insert anomaly %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// GetAnomaly retrieves a single anomaly.
func (s *SQLiteStorage) GetAnomaly(ctx context.Context, id string) (*model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getAnomaly(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAnomaly(ctx context.Context, q queryRower, id string) (*model.Anomaly, error) {
	row := q.QueryRowContext(ctx, `SELECT `+anomalyColumns+` FROM anomalies WHERE id = ?`, id)
	a, err := scanAnomaly(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("anomaly %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnomalies returns anomalies matching filter, newest first.
func (s *SQLiteStorage) ListAnomalies(ctx context.Context, filter service.AnomalyFilter) ([]model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Since != nil {
		where = append(where, "detected_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}

	query := `SELECT ` + anomalyColumns + ` FROM anomalies`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY detected_at DESC, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var anomalies []model.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}
	return anomalies, nil
}

// ResolveAnomaly records a human review decision and appends the matching
// audit entry in the same database transaction. A pending anomaly may move to
// any resolution; a reviewed one only to DISMISSED or CONFIRMED.
func (s *SQLiteStorage) ResolveAnomaly(ctx context.Context, id string, status model.AnomalyStatus, note, actor string, at time.Time) (*model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(actor, "actor"); err != nil {
		return nil, err
	}

	var resolved *model.Anomaly
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getAnomaly(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(current.Status, status); err != nil {
			return err
		}

		after := *current
		after.Status = status
		after.ResolvedAt = &at
		if note = strings.TrimSpace(note); note != "" {
			after.ResolutionNote = &note
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE anomalies SET status = ?, resolution_note = ?, resolved_at = ? WHERE id = ?
		`, string(after.Status), nullableString(after.ResolutionNote), nullableTime(after.ResolvedAt), id); err != nil {
			return fmt.Errorf("failed to update anomaly: %w", err)
		}

		entry := model.AuditEntry{
			ID:           uuid.NewString(),
			Timestamp:    at,
			Actor:        actor,
			Action:       model.AuditActionAnomalyReviewed,
			ResourceType: model.AuditResourceAnomaly,
			ResourceID:   id,
			Before:       reviewSnapshot(*current),
			After:        reviewSnapshot(after),
		}
		if err := appendAudit(ctx, tx, entry); err != nil {
			return err
		}

		resolved = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func checkTransition(from, to model.AnomalyStatus) error {
	if !to.IsResolution() {
		return fmt.Errorf("%w: %s is not a review outcome", common.ErrInvalidTransition, to)
	}
	switch from {
	case model.StatusPending:
		return nil
	case model.StatusReviewed:
		if to != model.StatusReviewed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", common.ErrInvalidTransition, from, to)
}

func reviewSnapshot(a model.Anomaly) map[string]any {
	snapshot := map[string]any{
		"status":   string(a.Status),
		"severity": string(a.Severity),
		"type":     string(a.Type),
	}
	if a.ResolutionNote != nil {
		snapshot["resolutionNote"] = *a.ResolutionNote
	}
	if a.ResolvedAt != nil {
		snapshot["resolvedAt"] = formatTime(*a.ResolvedAt)
	}
	return snapshot
}

func scanAnomaly(row rowScanner) (model.Anomaly, error) {
	var (
		a                     model.Anomaly
		typ, severity, status string
		detectedAt            string
		txnID, evidence, note sql.NullString
		resolvedAt            sql.NullString
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &txnID, &typ, &severity, &status, &a.Explanation,
		&evidence, &note, &detectedAt, &resolvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan anomaly: %w", err)
	}

	a.Type = model.AnomalyType(typ)
	a.Severity = model.Severity(severity)
	a.Status = model.AnomalyStatus(status)
	if txnID.Valid {
		a.TransactionID = &txnID.String
	}
	if note.Valid {
		a.ResolutionNote = &note.String
	}

	var err error
	if a.DetectedAt, err = parseTime(detectedAt); err != nil {
		return a, err
	}
	if resolvedAt.Valid {
		t, err := parseTime(resolvedAt.String)
		if err != nil {
			return a, err
		}
		a.ResolvedAt = &t
	}
	if evidence.Valid {
		if a.Evidence, err = model.UnmarshalEvidence([]byte(evidence.String)); err != nil {
			return a, fmt.Errorf("anomaly %s: %w", a.ID, err)
		}
	}
	return a, nil
}
