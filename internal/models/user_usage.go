package models

import "time"

// UserUsage counts successful generations per user and model display name.
type UserUsage struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID    uint64 `gorm:"not null;uniqueIndex:idx_user_usages_user_model"`           // Owning user key ID.
	ModelName string `gorm:"type:text;not null;uniqueIndex:idx_user_usages_user_model"` // Provider display name.

	Count int64 `gorm:"not null;default:0"` // Successful generation count.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
