package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ledger:duration"

// RedisStore keeps one string key per entry (with a TTL equal to the
// retention window) plus a sorted set of keys scored by creation time, which
// drives oldest-first eviction.
type RedisStore struct {
	client *redis.Client
	policy Policy
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, policy Policy) *RedisStore {
	return &RedisStore{
		client: client,
		policy: policy.withDefaults(),
		prefix: defaultRedisPrefix,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for createdAt and retention checks.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

func (s *RedisStore) entryKey(key string) string { return s.prefix + ":entry:" + key }

func (s *RedisStore) indexKey() string { return s.prefix + ":index" }

func (s *RedisStore) Put(ctx context.Context, key string, minutes int) error {
	if err := validate(key, minutes); err != nil {
		return err
	}
	now := s.now()
	data, err := json.Marshal(Entry{Key: key, DurationMinutes: minutes, CreatedAt: now})
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(key), data, s.policy.Retention)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: key})
	pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", cutoffScore(now, s.policy.Retention))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store ledger entry: %w", err)
	}

	return s.evictOverflow(ctx)
}

func (s *RedisStore) evictOverflow(ctx context.Context) error {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("count ledger entries: %w", err)
	}
	overflow := n - int64(s.policy.MaxEntries)
	if overflow <= 0 {
		return nil
	}

	victims, err := s.client.ZRange(ctx, s.indexKey(), 0, overflow-1).Result()
	if err != nil {
		return fmt.Errorf("select ledger victims: %w", err)
	}
	if len(victims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(victims))
	members := make([]any, 0, len(victims))
	for _, v := range victims {
		keys = append(keys, s.entryKey(v))
		members = append(members, v)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRem(ctx, s.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("evict ledger entries: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load ledger entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// a corrupt entry is as good as a missing one
		_ = s.client.Del(ctx, s.entryKey(key)).Err()
		return Entry{}, false, nil
	}
	if s.policy.expired(e, s.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", cutoffScore(s.now(), s.policy.Retention)).Err(); err != nil {
		return 0, fmt.Errorf("prune ledger index: %w", err)
	}
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return int(n), nil
}

// cutoffScore is the exclusive upper bound of expired index scores.
func cutoffScore(now time.Time, retention time.Duration) string {
	return "(" + strconv.FormatInt(now.Add(-retention).UnixMilli(), 10)
}
