package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/security"
)

// minPasswordLength is the minimum accepted admin password length.
const minPasswordLength = 6

// AuthHandler serves admin login and password management.
type AuthHandler struct {
	svc        *auth.Service
	production bool
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *auth.Service, production bool) *AuthHandler {
	return &AuthHandler{svc: svc, production: production}
}

// Login authenticates the admin password, bootstrapping the admin account on
// the first-ever attempt, and sets the admin session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Password string `json:"password"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	result, errLogin := h.svc.BootstrapOrLoginAdmin(c.Request.Context(), body.Password)
	if errLogin != nil {
		httperr.Write(c, errLogin)
		return
	}

	setSessionCookie(c, security.AdminSessionCookie, result.Token, security.AdminTokenTTL, h.production)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "bootstrapped": result.Bootstrapped})
}

// UpdatePassword replaces the admin password after verifying the current one.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	if errRequire := h.svc.RequireAdmin(c.Request); errRequire != nil {
		httperr.Write(c, errRequire)
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil || body.CurrentPassword == "" || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}
	if len(body.NewPassword) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new password must be at least 6 characters"})
		return
	}

	if errUpdate := h.svc.UpdateAdminPassword(c.Request.Context(), body.CurrentPassword, body.NewPassword); errUpdate != nil {
		httperr.Write(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
