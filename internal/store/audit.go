package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/reunite/internal/model"
)

// DefaultAuditLimit is the number of events returned when no limit is given.
const DefaultAuditLimit = 200

// RecordAudit appends an event to the audit log.
func RecordAudit(ctx context.Context, db *sql.DB, ev model.AuditEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, title, details, actor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Action, ev.EntityType, ev.EntityID, ev.Title, ev.Details, ev.Actor, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording audit event: %w", err)
	}
	return nil
}

// ListAudit returns the most recent audit events, newest first.
func ListAudit(ctx context.Context, db *sql.DB, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, action, entity_type, entity_id, title, details, actor, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	defer rows.Close()

	events := []model.AuditEvent{}
	for rows.Next() {
		var ev model.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Action, &ev.EntityType, &ev.EntityID, &ev.Title,
			&ev.Details, &ev.Actor, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
