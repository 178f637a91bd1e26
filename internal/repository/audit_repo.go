package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"secure_blog/internal/models"

	"github.com/google/uuid"
)

type AuditRepository struct {
	conn
}

func NewAuditRepository(db DBTX, dialect Dialect) *AuditRepository {
	return &AuditRepository{conn{db: db, dialect: dialect}}
}

var _ AuditEvents = (*AuditRepository)(nil)

const (
	insertAuditEventSQL = `
		INSERT INTO audit_events (id, occurred_at, type, user_id, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	selectAuditEventsSQL = `SELECT id, occurred_at, type, user_id, message, meta FROM audit_events`
)

// Append inserts a new event. If EventID or OccurredAt are empty, they’re set.
func (r *AuditRepository) Append(ctx context.Context, e models.AuditEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var userID sql.NullInt64
	if e.UserID > 0 {
		userID = sql.NullInt64{Int64: e.UserID, Valid: true}
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.exec(ctx, insertAuditEventSQL,
		e.EventID,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		userID,
		e.Message,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", e.Type, err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered ASC.
func (r *AuditRepository) List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectAuditEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select audit events: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditEvent, 0, 64)
	for rows.Next() {
		var (
			ev      models.AuditEvent
			userID  sql.NullInt64
			metaStr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &userID, &ev.Message, &metaStr); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.UserID = userID.Int64

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
