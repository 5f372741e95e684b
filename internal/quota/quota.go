// Package quota enforces the per-user daily lookup limit. Day boundaries
// are UTC calendar days; the reset-check-increment sequence is a single
// atomic unit per user in every backend, so concurrent submissions cannot
// both observe a stale counter.
package quota

import (
	"context"
	"errors"
	"time"
)

// DayFormat is the layout for quota day strings.
const DayFormat = "2006-01-02"

// ErrStoreUnavailable indicates the quota store could not be reached.
// Callers must treat it as a hard failure, never as an implicit allow.
var ErrStoreUnavailable = errors.New("quota store unavailable")

// Manager gates lookup submissions against the daily limit.
type Manager interface {
	// TryConsume atomically counts one request for the user. It returns
	// false when the user has exhausted today's limit; denial never
	// mutates state. A store failure returns ErrStoreUnavailable.
	TryConsume(ctx context.Context, userID uint64) (bool, error)
}

// utcDay formats t as a UTC quota day string.
func utcDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}
