package handlers

import (
	"context"
	"strconv"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/models"
	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms

	errSinceInvalid = "invalid 'since' time; use RFC3339 or YYYY-MM-DD"
)

// wsEnvelope is the frame written to stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Same-origin only. Stream clients authenticate with a bearer header, not cookies.
var upgrader = websocket.Upgrader{}

// auditCursor remembers the newest delivered timestamp and the ids already
// sent at that timestamp, so an inclusive "from" query never repeats events.
type auditCursor struct {
	since time.Time
	seen  map[string]struct{}
}

func newAuditCursor(since time.Time) *auditCursor {
	return &auditCursor{since: since, seen: map[string]struct{}{}}
}

// advance filters events (oldest first) down to the unseen ones and moves the cursor.
func (cur *auditCursor) advance(events []models.AuditEvent) []models.AuditEvent {
	fresh := make([]models.AuditEvent, 0, len(events))
	for _, e := range events {
		at := e.OccurredAt.UTC()
		if at.Before(cur.since) {
			continue
		}
		if at.Equal(cur.since) {
			if _, dup := cur.seen[e.EventID]; dup {
				continue
			}
		} else {
			cur.since = at
			cur.seen = map[string]struct{}{}
		}
		cur.seen[e.EventID] = struct{}{}
		fresh = append(fresh, e)
	}
	return fresh
}

// @Summary      Stream audit events
// @Description  Admin only. Upgrades to a WebSocket and pushes new audit events as {"type":"audit","data":[...]} frames. Poll rate via ?interval=2s or ?interval_ms=2000 (max 10s).
// @Tags         audit
// @Param        since        query  string  false  "Replay events from this time (default: now)"
// @Param        type         query  string  false  "Event type"
// @Param        interval     query  string  false  "Poll interval, e.g. 500ms"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/audit/stream [get]
// @Security     BearerAuth
func (h *Handler) streamAudit(c *gin.Context) {
	since := time.Now().UTC()
	if qs := c.Query("since"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			h.respondError(c, "audit_stream_bad_query", apperr.Validation(errSinceInvalid))
			return
		}
		since = t
	}
	actor := identityFrom(c)
	filter := service.AuditFilter{From: since, Type: c.Query("type")}

	// Authorize and fetch the backlog before upgrading so failures are plain HTTP errors.
	backlog, err := h.services.AuditLog.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.respondError(c, "audit_stream_rejected", err)
		return
	}
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	cur := newAuditCursor(since)
	if err := h.sendEvents(conn, cur.advance(backlog), true); err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := h.pollAudit(ctx, conn, actor, filter, cur); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// pollAudit fetches events newer than the cursor and writes them. A failed
// query is reported to the client as an error frame and the stream continues.
func (h *Handler) pollAudit(ctx context.Context, conn *websocket.Conn, actor auth.Identity, filter service.AuditFilter, cur *auditCursor) error {
	filter.From = cur.since
	events, err := h.services.AuditLog.List(ctx, actor, filter)
	if err != nil {
		h.log.Errorw("ws_audit_poll_failed", "err", err)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(wsEnvelope{Type: "error", Error: apperr.Message(err)})
	}
	return h.sendEvents(conn, cur.advance(events), false)
}

// sendEvents writes one audit frame. Empty batches are skipped unless force is set.
func (h *Handler) sendEvents(conn *websocket.Conn, events []models.AuditEvent, force bool) error {
	if len(events) == 0 && !force {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "audit", Data: events})
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Infow("ws_read_closed", "err", err)
			return
		}
	}
}
