package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/logtrackr/internal/logger"
)

const (
	RequestIDKey    = "requestID"
	RequestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// RequestID tags every request with an id, reusing the caller's X-Request-ID
// when it is a well-formed UUID, and stores a request-scoped logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Set(loggerKey, logger.WithFields(logrus.Fields{"request_id": rid}))
		c.Next()
	}
}

// GetRequestLogger returns the request-scoped logger, or the global one.
func GetRequestLogger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logger.Log()
}
