package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/logtrackr/internal/services"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
	// AuthCookie is checked when no Authorization header is sent.
	AuthCookie = "auth_token"
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid JWT, from the Authorization header or the
// auth cookie, and exposes the caller's id and role on the context.
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(AuthCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		GetRequestLogger(c).Debug("authenticated request")
		c.Next()
	}
}

// RequireRole allows only callers whose role matches.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id, or 0.
func UserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
