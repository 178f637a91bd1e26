package handlers

import (
	"net/http"
	"strconv"

	"secure_blog/internal/apperr"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBody = "invalid request body"
	errInvalidID   = "invalid id"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the caller-safe message for err. Internal errors are
// logged with their cause and answered with a generic body.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	kind := apperr.KindOf(err)
	fields := append([]interface{}{"err", err, "kind", kind.String(), "request_id", c.GetString(requestIDKey)}, kv...)
	if kind == apperr.KindInternal {
		h.log.Errorw(logKey, fields...)
	} else {
		h.log.Infow(logKey, fields...)
	}
	c.AbortWithStatusJSON(statusFor(kind), gin.H{"error": apperr.Message(err)})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return false
	}
	return true
}

// pathID parses the :id path parameter; it writes a 400 and returns false when invalid.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return 0, false
	}
	return id, true
}
