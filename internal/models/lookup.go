package models

import (
	"time"

	"gorm.io/datatypes"
)

// Lookup is the immutable record of one completed threat-intelligence
// query. Rows are append-only: nothing in this service updates or deletes
// them after creation.
type Lookup struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID assigned at creation.

	UserID uint64 `gorm:"not null;index:idx_lookups_user_created"` // Owning user.

	Query     string `gorm:"type:text;not null"`                   // Raw indicator as submitted.
	QueryType string `gorm:"column:query_type;type:text;not null"` // One of ip, domain, url, hash, email.

	Score int `gorm:"not null"` // Normalized risk score, 0-100.

	ProviderData datatypes.JSON `gorm:"type:jsonb;not null"` // Verbatim provider document.
	Summary      string         `gorm:"type:text;not null"`  // Natural-language summary.

	CreatedAt time.Time `gorm:"not null;index:idx_lookups_user_created"` // Sole ordering key for analytics.
}

// TableName overrides the default table name.
func (Lookup) TableName() string {
	return "lookups"
}
