package service

import (
	"context"
	"strings"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/policy"
	"secure_blog/internal/repository"
)

type AuditService struct {
	store repository.Store
	log   *logger.Logger
}

func NewAuditService(store repository.Store, log *logger.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

var errInvalidTimeRange = apperr.Validation("invalid time range: from must be <= to")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f AuditFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *AuditService) Record(ctx context.Context, e models.AuditEvent) error {
	if err := s.store.Audit().Append(ctx, e); err != nil {
		return apperr.Internal("append audit event", err)
	}
	return nil
}

func (s *AuditService) List(ctx context.Context, actor auth.Identity, f AuditFilter) ([]models.AuditEvent, error) {
	if err := policy.Authorize(actor, policy.Audit, policy.List, policy.Target{}); err != nil {
		return nil, err
	}
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.store.Audit().List(ctx, from, to, typ)
	if err != nil {
		return nil, fromRepo(err, "audit event")
	}
	return events, nil
}
