package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/services"
)

// statusFor maps service errors onto HTTP status codes. Anything unknown is
// a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrLogNotFound), errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoIDsToDelete), errors.Is(err, ingest.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case ingest.IsRejection(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Server faults are logged and
// their details withheld from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.GetRequestLogger(c).WithError(err).Error("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
