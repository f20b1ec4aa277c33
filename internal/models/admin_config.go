package models

import "time"

// AdminConfig stores the single admin identity's password hash.
//
// The table may technically hold more than one row; the row with the lowest
// ID is treated as the canonical admin account everywhere.
type AdminConfig struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	// Slot pins the table to one row. The unique index turns a concurrent
	// bootstrap race into a constraint conflict instead of a second row.
	Slot int `gorm:"not null;default:1;uniqueIndex"`

	PasswordHash string `gorm:"type:text;not null"` // Bcrypt hash of the admin password.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
