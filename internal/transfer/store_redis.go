package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOutcomeKeyPrefix = "transfer:outcome:"

// RedisStore is an OutcomeStore backed by Redis, for deployments where the
// webhook front door and the reporting pipeline run in separate processes.
// The key TTL implements the retention window; Redis serializes writes per
// key, which gives the per-key write exclusivity the store requires.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewRedisStore(rdb *redis.Client, retention time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("transfer: redis client is nil")
	}
	if retention <= 0 {
		retention = 4 * time.Hour
	}
	return &RedisStore{rdb: rdb, retention: retention}, nil
}

func (s *RedisStore) Record(ctx context.Context, o Outcome) error {
	if o.CompletedAt.IsZero() {
		o.CompletedAt = time.Now()
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("transfer: encode outcome: %w", err)
	}
	return s.rdb.Set(ctx, redisOutcomeKeyPrefix+o.CallerLegID, raw, s.retention).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, callerLegID string) (Outcome, bool, error) {
	raw, err := s.rdb.Get(ctx, redisOutcomeKeyPrefix+callerLegID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, err
	}

	var o Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return Outcome{}, false, fmt.Errorf("transfer: decode outcome: %w", err)
	}
	return o, true, nil
}
