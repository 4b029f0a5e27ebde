package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
	cookieMaxAge int
}

// NewAuthHandler returns an AuthHandler. secureCookie marks the auth cookie
// HTTPS-only.
func NewAuthHandler(authService *services.AuthService, secureCookie bool, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie, cookieMaxAge: cookieMaxAge}
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookie, value, maxAge, "/", "", h.secureCookie, true)
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=100"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Info("login failed")
		respondError(c, err)
		return
	}

	h.setAuthCookie(c, token, h.cookieMaxAge)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Refresh swaps the caller's still-valid token for a fresh one.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if token == "" {
		token, _ = c.Cookie(middleware.AuthCookie)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}

	fresh, err := h.authService.Refresh(token)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setAuthCookie(c, fresh, h.cookieMaxAge)
	c.JSON(http.StatusOK, gin.H{"token": fresh})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.authService.GetUserByID(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": u.ID,
		"role":    u.Role,
		"name":    u.Name,
		"email":   u.Email,
	})
}

// RegisterPublicRoutes mounts the endpoints that need no token.
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Register)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/refresh", h.Refresh)
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/me", h.Me)
	rg.POST("/auth/logout", h.Logout)
}
