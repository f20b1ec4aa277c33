package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for verification hashes.
const bcryptCost = 12

// userKeyPrefix marks system-generated user key secrets.
const userKeyPrefix = "uk_live_"

// HashForLookup returns the deterministic SHA-256 hex digest of plaintext.
// The digest is used strictly as a unique index key, never as a proof of
// possession on its own.
func HashForLookup(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// HashPassword returns a salted bcrypt hash of the plaintext.
func HashPassword(plaintext string) (string, error) {
	hashed, errHash := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if errHash != nil {
		return "", fmt.Errorf("security: hash password: %w", errHash)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches the stored bcrypt hash.
func CheckPassword(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}

// GenerateUserKeySecret creates a random high-entropy user key secret.
func GenerateUserKeySecret() (string, error) {
	raw := make([]byte, 32)
	if _, errRead := rand.Read(raw); errRead != nil {
		return "", fmt.Errorf("security: generate user key: %w", errRead)
	}
	return userKeyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// MaskSecret replaces all but the last four characters of value with '*'.
// Empty input yields empty output. The result is display-only and must never
// be compared against stored secrets.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return value
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
