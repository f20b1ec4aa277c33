package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pixelwork/pixelwork/internal/auth"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/security"
)

// LoginHandler authenticates end users by access key.
type LoginHandler struct {
	svc        *auth.Service
	production bool
}

// NewLoginHandler constructs a LoginHandler.
func NewLoginHandler(svc *auth.Service, production bool) *LoginHandler {
	return &LoginHandler{svc: svc, production: production}
}

// Login exchanges a plaintext access key for a user session.
func (h *LoginHandler) Login(c *gin.Context) {
	var body struct {
		Key string `json:"key"`
	}
	if errBindJSON := c.ShouldBindJSON(&body); errBindJSON != nil || strings.TrimSpace(body.Key) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	token, user, errLogin := h.svc.LoginUserWithKey(c.Request.Context(), strings.TrimSpace(body.Key))
	if errLogin != nil {
		httperr.Write(c, errLogin)
		return
	}

	setSessionCookie(c, security.UserSessionCookie, token, security.UserTokenTTL, h.production)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"name":       user.Name,
			"usageCount": user.UsageCount,
			"lastUsedAt": user.LastUsedAt,
			"isActive":   user.IsActive,
		},
	})
}
