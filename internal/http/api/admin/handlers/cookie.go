package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// setSessionCookie sets an httpOnly SameSite-Lax session cookie on path /,
// marked secure in production.
func setSessionCookie(c *gin.Context, name, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", secure, true)
}
