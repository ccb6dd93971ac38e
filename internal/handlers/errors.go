package handlers

import (
	"errors"
	"net/http"

	"smart_hatchery/internal/remote"
	"smart_hatchery/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errDeviceUnavailable = "incubator API unavailable"
	errDeviceRejected    = "incubator API rejected the request"
	errSessionRejected   = "session rejected by incubator API"
	errInternal          = "internal error"
	errInvalidBodyPref   = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// errorResponse maps service and device errors to a status and a message
// that is safe to show the operator.
func errorResponse(err error) (int, string) {
	var rejected *remote.RejectedError
	switch {
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, remote.ErrUnauthorized):
		return http.StatusUnauthorized, errSessionRejected
	case errors.Is(err, service.ErrMaintenanceActive):
		return http.StatusLocked, err.Error()
	case errors.Is(err, service.ErrUnknownCommand), errors.Is(err, service.ErrUnknownField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotEditing),
		errors.Is(err, service.ErrEditorOpen),
		errors.Is(err, service.ErrCommitInFlight),
		errors.Is(err, service.ErrConfigNotLoaded):
		return http.StatusConflict, err.Error()
	case errors.As(err, &rejected):
		if rejected.Detail != "" {
			return http.StatusUnprocessableEntity, rejected.Detail
		}
		return http.StatusUnprocessableEntity, errDeviceRejected
	case errors.Is(err, remote.ErrRejected):
		return http.StatusUnprocessableEntity, errDeviceRejected
	case errors.Is(err, remote.ErrUnavailable):
		return http.StatusBadGateway, errDeviceUnavailable
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// respondError writes the mapped error. Server-side and device failures
// are logged at error level; operator mistakes only at info.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := errorResponse(err)
	if code >= http.StatusInternalServerError {
		h.logAndJSONError(c, code, msg, logKey, err, kv...)
		return
	}
	if h.log != nil {
		h.log.Infow(logKey, append([]interface{}{"err", err}, kv...)...)
	}
	c.JSON(code, gin.H{"error": msg})
}
