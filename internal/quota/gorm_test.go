package quota

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/threatscope/threatscope/internal/models"
	"gorm.io/gorm"
)

func setupQuotaDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:quota_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	// Single connection keeps in-memory SQLite from returning busy errors
	// under the concurrent test; the CAS semantics under test are the same.
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := conn.AutoMigrate(&models.QuotaRecord{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func TestGormManagerSequentialLimit(t *testing.T) {
	conn := setupQuotaDB(t)
	manager := NewGormManager(conn, 10)

	for i := 0; i < 10; i++ {
		allowed, errConsume := manager.TryConsume(context.Background(), 1)
		if errConsume != nil {
			t.Fatalf("consume %d: %v", i, errConsume)
		}
		if !allowed {
			t.Fatalf("consume %d: expected allowed", i)
		}
	}

	allowed, errConsume := manager.TryConsume(context.Background(), 1)
	if errConsume != nil {
		t.Fatalf("consume 11: %v", errConsume)
	}
	if allowed {
		t.Fatal("consume 11: expected denied")
	}

	var record models.QuotaRecord
	if errFind := conn.Where("user_id = ?", uint64(1)).First(&record).Error; errFind != nil {
		t.Fatalf("load record: %v", errFind)
	}
	if record.DailyRequests != 10 {
		t.Fatalf("expected counter 10 after denial, got %d", record.DailyRequests)
	}
}

func TestGormManagerConcurrentLimit(t *testing.T) {
	conn := setupQuotaDB(t)
	manager := NewGormManager(conn, 10)

	const attempts = 25
	var wg sync.WaitGroup
	results := make([]bool, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = manager.TryConsume(context.Background(), 7)
		}(i)
	}
	wg.Wait()

	allowed := 0
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("attempt %d: %v", i, errs[i])
		}
		if results[i] {
			allowed++
		}
	}
	if allowed != 10 {
		t.Fatalf("expected exactly 10 allowed, got %d", allowed)
	}
}

func TestGormManagerDayReset(t *testing.T) {
	conn := setupQuotaDB(t)
	manager := NewGormManager(conn, 10)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	record := models.QuotaRecord{
		UserID:          3,
		DailyRequests:   10,
		LastRequestDate: yesterday.Format(DayFormat),
	}
	if errCreate := conn.Create(&record).Error; errCreate != nil {
		t.Fatalf("seed record: %v", errCreate)
	}

	allowed, errConsume := manager.TryConsume(context.Background(), 3)
	if errConsume != nil {
		t.Fatalf("consume: %v", errConsume)
	}
	if !allowed {
		t.Fatal("expected allowed after day rollover")
	}

	var updated models.QuotaRecord
	if errFind := conn.Where("user_id = ?", uint64(3)).First(&updated).Error; errFind != nil {
		t.Fatalf("load record: %v", errFind)
	}
	if updated.DailyRequests != 1 {
		t.Fatalf("expected counter reset to 1, got %d", updated.DailyRequests)
	}
	if updated.LastRequestDate != utcDay(time.Now()) {
		t.Fatalf("expected last request date today, got %s", updated.LastRequestDate)
	}
}

func TestGormManagerNonPositiveLimitDeniesEverything(t *testing.T) {
	conn := setupQuotaDB(t)

	for _, limit := range []int{0, -1} {
		manager := NewGormManager(conn, limit)
		allowed, errConsume := manager.TryConsume(context.Background(), 20)
		if errConsume != nil {
			t.Fatalf("limit %d: %v", limit, errConsume)
		}
		if allowed {
			t.Fatalf("limit %d: expected denial", limit)
		}
	}

	var count int64
	if errCount := conn.Model(&models.QuotaRecord{}).Where("user_id = ?", uint64(20)).Count(&count).Error; errCount != nil {
		t.Fatalf("count records: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no quota row written, got %d", count)
	}
}

func TestGormManagerIsolatesUsers(t *testing.T) {
	conn := setupQuotaDB(t)
	manager := NewGormManager(conn, 1)

	for _, userID := range []uint64{10, 11, 12} {
		allowed, errConsume := manager.TryConsume(context.Background(), userID)
		if errConsume != nil {
			t.Fatalf("user %d: %v", userID, errConsume)
		}
		if !allowed {
			t.Fatalf("user %d: expected allowed", userID)
		}
	}

	allowed, errConsume := manager.TryConsume(context.Background(), 10)
	if errConsume != nil {
		t.Fatalf("second consume: %v", errConsume)
	}
	if allowed {
		t.Fatal("expected denial for exhausted user")
	}
}
