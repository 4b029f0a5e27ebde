package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Wikid82/logtrackr/internal/services"
)

type stubValidator map[string]*services.Claims

func (s stubValidator) ValidateToken(token string) (*services.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func authRouter(v TokenValidator) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(v))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "role": c.GetString(RoleKey)})
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	// nil validator: rejection happens before it is used
	w := serve(authRouter(nil), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header required")
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	r := authRouter(stubValidator{"good": {UserID: 3, Role: "user"}})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "bearer good")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":3,"role":"user"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	r := authRouter(stubValidator{"cookie-token": {UserID: 9, Role: "admin"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "cookie-token"})
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":9,"role":"admin"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set(RoleKey, role); c.Next() })
		r.Use(RequireRole("admin"))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, want, serve(r, httptest.NewRequest(http.MethodGet, "/test", nil)).Code, role)
	}
}
