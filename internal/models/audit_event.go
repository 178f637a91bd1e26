package models

import "time"

// Audit event types.
const (
	EventRegister                  = "REGISTER"
	EventLoginSuccess              = "LOGIN_SUCCESS"
	EventLoginFailure              = "LOGIN_FAILURE"
	EventCredentialMigrated        = "CREDENTIAL_MIGRATED"
	EventCredentialMigrationFailed = "CREDENTIAL_MIGRATION_FAILED"
)

// AuditEvent is a single append-only identity log entry.
type AuditEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id,omitempty"` // 0 when the actor is unknown
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
