package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript performs the check-then-increment atomically. Keys carry
// the UTC day, so a day boundary simply starts a fresh key; stale keys
// expire on their own.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// keyTTLSeconds keeps yesterday's key around briefly for inspection before
// it expires. Two days covers any clock skew across instances.
const keyTTLSeconds = 2 * 24 * 60 * 60

// RedisManager enforces the daily limit with one Redis key per user per
// UTC day, consumed through an atomic Lua script.
type RedisManager struct {
	client *redis.Client
	limit  int
	now    func() time.Time
}

// NewRedisManager constructs a RedisManager with the given daily limit.
func NewRedisManager(client *redis.Client, limit int) *RedisManager {
	return &RedisManager{client: client, limit: limit, now: time.Now}
}

// TryConsume implements Manager.
func (m *RedisManager) TryConsume(ctx context.Context, userID uint64) (bool, error) {
	if m == nil || m.client == nil {
		return false, ErrStoreUnavailable
	}

	key := fmt.Sprintf("quota:%d:%s", userID, utcDay(m.now()))
	allowed, errRun := consumeScript.Run(ctx, m.client, []string{key}, m.limit, keyTTLSeconds).Int()
	if errRun != nil {
		return false, fmt.Errorf("%w: consume quota: %v", ErrStoreUnavailable, errRun)
	}
	return allowed == 1, nil
}
