package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"secure_blog/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	identityKey     = "identity"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

var errUnauthorized = gin.H{"error": "unauthorized"}

// authMiddleware resolves the bearer token into an auth.Identity. Every
// rejection gets the same body; the reason is logged only.
func (h *Handler) authMiddleware(c *gin.Context) {
	ident, err := h.identityFromHeader(c.GetHeader("Authorization"))
	if err != nil {
		kind := "unknown"
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			kind = authErr.Kind.String()
		}
		h.log.Infow("auth_rejected", "kind", kind, "path", c.FullPath(), "request_id", c.GetString(requestIDKey))
		c.AbortWithStatusJSON(http.StatusUnauthorized, errUnauthorized)
		return
	}

	// store in Gin context
	c.Set(identityKey, ident)
	c.Next()
}

func (h *Handler) identityFromHeader(header string) (auth.Identity, error) {
	if header == "" {
		return auth.Identity{}, &auth.AuthError{Kind: auth.Missing}
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return auth.Identity{}, &auth.AuthError{Kind: auth.Malformed}
	}
	return h.services.Auth.ParseToken(strings.TrimSpace(parts[1]))
}

// identityFrom returns the caller resolved by authMiddleware, or the zero
// (unauthenticated) identity.
func identityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(auth.Identity); ok {
			return ident
		}
	}
	return auth.Identity{}
}

// requestID tags every request with an id, reusing a well-formed incoming one.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"request_id", c.GetString(requestIDKey),
	)
}

// timeoutMiddleware bounds the request context; repositories observe it.
// WebSocket upgrades are long-lived and left unbounded.
func (h *Handler) timeoutMiddleware(c *gin.Context) {
	if h.requestTimeout <= 0 || c.IsWebsocket() {
		c.Next()
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
