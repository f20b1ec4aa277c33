// Package http provides the shared middleware in front of the API routes.
package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pixelwork/pixelwork/internal/security"
	log "github.com/sirupsen/logrus"
)

// Public login paths that bypass all session checks.
const (
	userLoginPath  = "/auth/login"
	adminLoginPath = "/admin/login"
)

// SessionGate rejects unauthenticated or wrong-audience requests on gated
// routes before they reach handlers. Only the fixed route set below is
// gated; anything else passes untouched. The gate is a fast-path filter:
// handlers still re-validate through the auth service.
func SessionGate(codec *security.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == userLoginPath || path == adminLoginPath {
			c.Next()
			return
		}

		var cookieName, audience string
		switch {
		case path == "/admin" || strings.HasPrefix(path, "/admin/"):
			cookieName, audience = security.AdminSessionCookie, security.AudienceAdmin
		case path == "/models" || path == "/generate":
			cookieName, audience = security.UserSessionCookie, security.AudienceUser
		default:
			c.Next()
			return
		}

		token := security.TokenFromRequest(c.Request, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}
		claims, errVerify := codec.Verify(token)
		if errVerify != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}
		if claims.Type != audience {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequestID assigns each request an ID and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// AccessLog emits one structured log line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": c.GetString("requestID"),
		}).Info("request")
	}
}

// CORS enables permissive cross-origin access for the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
