package models

import "time"

// User is an account that can submit lookups. The lookup pipeline only ever
// sees the numeric ID; everything else exists to authenticate that ID.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Login name.
	Email    string `gorm:"type:text"`                      // Contact address.
	Password string `gorm:"type:text;not null"`             // Bcrypt hash.

	Disabled bool `gorm:"not null;default:false"` // Blocks login when set.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}
