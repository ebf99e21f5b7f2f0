package transfer

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meshahzad92/Inbound-Calling/pkg/utils"
)

const dialSlotKeyPrefix = "transfer:dial:"

// RedisDialLimiter caps concurrent probe dials per destination across
// all API instances. A destination already being probed by the limit
// number of transfers rejects further attempts instead of stacking
// rings on one phone.
type RedisDialLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisDialLimiter(rdb *redis.Client, limit int, ttl time.Duration) *RedisDialLimiter {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		// Slightly above the longest poll deadline so crashed probes
		// free their slot on their own.
		ttl = 5 * time.Minute
	}
	return &RedisDialLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func (l *RedisDialLimiter) Acquire(ctx context.Context, destination string) (bool, error) {
	return utils.AcquireSlot(ctx, l.rdb, dialSlotKeyPrefix+destination, l.limit, l.ttl)
}

func (l *RedisDialLimiter) Release(ctx context.Context, destination string) error {
	return utils.ReleaseSlot(ctx, l.rdb, dialSlotKeyPrefix+destination)
}
