package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one line per request. Server errors log at error
// level and client errors at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
			"bytes":   c.Writer.Size(),
		})
		if uid, ok := c.Get(UserIDKey); ok {
			entry = entry.WithField("user_id", uid)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("handled request")
		case status >= http.StatusBadRequest:
			entry.Warn("handled request")
		default:
			entry.Info("handled request")
		}
	}
}
