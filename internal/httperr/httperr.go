// Package httperr defines the request-boundary error type shared by the auth
// service, upstream client, and HTTP handlers.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error carries an HTTP status alongside a caller-safe message. Everything a
// handler surfaces to a client flows through this type; unexpected errors are
// reported with a deliberately generic 500 message.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New constructs an Error with an explicit status.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest builds a 400 validation error.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

// Unauthorized builds a 401 authentication error.
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

// Forbidden builds a 403 authorization error.
func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

// NotFound builds a 404 missing-entity error.
func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// Write maps err to a JSON {"error": message} response. Non-Error values are
// masked behind a generic 500 so internals never leak to clients.
func Write(c *gin.Context, err error) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		c.JSON(httpErr.Status, gin.H{"error": httpErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
