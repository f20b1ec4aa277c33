package models

import (
	"time"

	"gorm.io/datatypes"
)

// ApiProvider stores one upstream generation backend configuration.
//
// Name is the stable routing key end users pass to select a backend. Several
// rows may share a name historically; selection always picks the most
// recently created active row.
type ApiProvider struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:varchar(64);not null;index"` // Routing key.
	DisplayName string `gorm:"type:text;not null"`              // Name shown to end users.
	ModelID     string `gorm:"type:text;not null"`              // Upstream model identifier.
	BaseURL     string `gorm:"type:text;not null"`              // Upstream base URL.
	APIKey      string `gorm:"type:text;not null"`              // Upstream credential, masked on echo.

	Headers datatypes.JSON `gorm:"type:jsonb"` // Extra request headers.

	IsActive bool `gorm:"not null;default:true"` // Whether the provider is selectable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
