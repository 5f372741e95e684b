package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/threatscope/threatscope/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormManager enforces the daily limit with a quota_records row per user.
// The limit check and increment are folded into one conditional UPDATE, so
// the database serializes concurrent attempts for the same user.
type GormManager struct {
	db    *gorm.DB
	limit int
	now   func() time.Time
}

// NewGormManager constructs a GormManager with the given daily limit.
func NewGormManager(db *gorm.DB, limit int) *GormManager {
	return &GormManager{db: db, limit: limit, now: time.Now}
}

// TryConsume implements Manager.
func (m *GormManager) TryConsume(ctx context.Context, userID uint64) (bool, error) {
	if m == nil || m.db == nil {
		return false, ErrStoreUnavailable
	}
	// The stale-day arm of the UPDATE below resets the counter without a
	// limit check, so non-positive limits deny here, matching the Redis
	// backend.
	if m.limit < 1 {
		return false, nil
	}

	now := m.now().UTC()
	today := utcDay(now)

	// First use creates the row with a zero counter; existing rows are
	// left untouched so the conditional UPDATE below sees their state.
	seed := models.QuotaRecord{
		UserID:          userID,
		DailyRequests:   0,
		LastRequestDate: today,
	}
	if errSeed := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&seed).Error; errSeed != nil {
		return false, fmt.Errorf("%w: seed quota record: %v", ErrStoreUnavailable, errSeed)
	}

	// One statement performs the day reset, the limit check, and the
	// increment. A stale day resets the counter to 1; the current day
	// increments only while under the limit. Zero rows affected means
	// the limit is exhausted, with nothing mutated.
	result := m.db.WithContext(ctx).Exec(`
		UPDATE quota_records
		SET daily_requests = CASE WHEN last_request_date <> ? THEN 1 ELSE daily_requests + 1 END,
		    last_request_date = ?,
		    updated_at = ?
		WHERE user_id = ?
		  AND (last_request_date <> ? OR daily_requests < ?)`,
		today, today, now, userID, today, m.limit)
	if result.Error != nil {
		return false, fmt.Errorf("%w: consume quota: %v", ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected == 1, nil
}
