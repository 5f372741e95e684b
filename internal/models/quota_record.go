package models

import "time"

// QuotaRecord tracks how many lookups a user has consumed during one UTC
// calendar day. One row per user; the counter is logically zero whenever
// LastRequestDate is not the current UTC day.
type QuotaRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex"` // Owning user.

	DailyRequests int `gorm:"not null;default:0"` // Lookups counted today.

	// LastRequestDate is the UTC day, formatted 2006-01-02, of the last
	// counted request. Stored as a string so the reset-check-increment can
	// be a single conditional UPDATE on both dialects.
	LastRequestDate string `gorm:"type:varchar(10);not null"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (QuotaRecord) TableName() string {
	return "quota_records"
}
