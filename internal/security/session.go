package security

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session audiences. Tokens are never interchangeable across audiences.
const (
	AudienceUser  = "user"
	AudienceAdmin = "admin"
)

// Session cookie names per audience.
const (
	UserSessionCookie  = "pw_user_session"
	AdminSessionCookie = "pw_admin_session"
)

// Default session lifetimes per audience.
const (
	UserTokenTTL  = 30 * 24 * time.Hour
	AdminTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken reports a token that failed signature, expiry, or claim
// validation.
var ErrInvalidToken = errors.New("security: invalid session token")

// SessionClaims carries the verified claim set of a session token.
type SessionClaims struct {
	Type    string // Audience, "user" or "admin".
	Subject string // Identity bound to the token.
}

// tokenClaims is the JWT payload shape used for signing and parsing.
type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact expiring session tokens with a
// process-wide secret resolved once at startup.
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec. An empty secret is a configuration error.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("security: missing JWT secret")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Sign produces a signed token of the given audience and subject, issued now
// and expiring after ttl.
func (c *Codec) Sign(typ, sub string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, errSign := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if errSign != nil {
		return "", fmt.Errorf("security: sign session token: %w", errSign)
	}
	return token, nil
}

// Verify parses and validates a token, returning its claims. Signature
// failures, expiry, a missing subject, and an unknown audience all map to
// ErrInvalidToken.
func (c *Codec) Verify(token string) (SessionClaims, error) {
	var claims tokenClaims
	parsed, errParse := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if errParse != nil || !parsed.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	if claims.Type != AudienceUser && claims.Type != AudienceAdmin {
		return SessionClaims{}, ErrInvalidToken
	}
	return SessionClaims{Type: claims.Type, Subject: claims.Subject}, nil
}

// TokenFromRequest resolves a session token from the request. The bearer
// authorization header wins over the named cookie; an empty result means no
// token was presented, which callers treat as unauthenticated rather than an
// error.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return cookieToken(r.Header.Get("Cookie"), cookieName)
}

// bearerToken extracts the token from an Authorization header, matching the
// Bearer scheme case-insensitively.
func bearerToken(header string) string {
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

// cookieToken extracts a named cookie value from the raw Cookie header.
// Malformed segments (missing '=' or empty name) are skipped rather than
// failing the whole parse.
func cookieToken(header, name string) string {
	if header == "" || name == "" {
		return ""
	}
	for _, segment := range strings.Split(header, ";") {
		idx := strings.Index(segment, "=")
		if idx <= 0 {
			continue
		}
		if strings.TrimSpace(segment[:idx]) != name {
			continue
		}
		if value := strings.TrimSpace(segment[idx+1:]); value != "" {
			return value
		}
	}
	return ""
}
