package models

import "time"

// UserKey represents one issued end-user access credential.
type UserKey struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null"` // Human-readable owner name.

	// KeyID is the deterministic SHA-256 hex of the plaintext key. All key
	// lookups go through this index, never through a table scan.
	KeyID string `gorm:"type:varchar(64);not null;uniqueIndex"`
	// Key is the salted bcrypt hash of the plaintext, used for comparison only.
	Key string `gorm:"type:text;not null"`
	// PlainKey holds a recoverable copy when the key was supplied by an admin
	// for later re-display. Empty for system-generated keys.
	PlainKey string `gorm:"type:text"`

	UsageCount int64      `gorm:"not null;default:0"` // Successful generation count.
	LastUsedAt *time.Time // Last successful generation time.

	IsActive bool `gorm:"not null;default:true"` // Whether the key may authenticate.

	Usages []UserUsage `gorm:"foreignKey:UserID"` // Per-model usage rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
