package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List audit events
// @Description  Admin only. Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         audit
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(REGISTER,LOGIN_SUCCESS,LOGIN_FAILURE,CREDENTIAL_MIGRATED,CREDENTIAL_MIGRATION_FAILED)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/audit [get]
// @Security     BearerAuth
func (h *Handler) listAudit(c *gin.Context) {
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			h.respondError(c, "audit_bad_query", apperr.Validation(errFromInvalid))
			return
		}
	}
	// If only a date is provided for 'to', make it end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			h.respondError(c, "audit_bad_query", apperr.Validation(errToInvalid))
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	events, err := h.services.AuditLog.List(c.Request.Context(), identityFrom(c), service.AuditFilter{
		From: from,
		To:   to,
		Type: c.Query("type"),
	})
	if err != nil {
		h.respondError(c, "audit_list_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
