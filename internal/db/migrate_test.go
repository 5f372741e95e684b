package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesLookupColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"id", "user_id", "query", "query_type", "score", "provider_data", "summary", "created_at"} {
		if !conn.Migrator().HasColumn("lookups", column) {
			t.Fatalf("lookups missing column %s", column)
		}
	}
}

func TestMigrateSQLiteCreatesQuotaColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"user_id", "daily_requests", "last_request_date"} {
		if !conn.Migrator().HasColumn("quota_records", column) {
			t.Fatalf("quota_records missing column %s", column)
		}
	}
	if !conn.Migrator().HasTable("users") {
		t.Fatalf("users table missing")
	}
}
