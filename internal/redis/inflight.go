package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InFlight shares the set of appointment ids with a completion in progress
// between processes. Each claim is a key holding a random token; it expires
// after ttl so a crashed holder cannot block an id forever.
type InFlight struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

func NewInFlight(client *redis.Client, ttl time.Duration) *InFlight {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InFlight{
		client: client,
		ttl:    ttl,
		prefix: "inflight:complete:",
		tokens: make(map[string]string),
	}
}

func (f *InFlight) key(id string) string { return f.prefix + id }

func (f *InFlight) TryClaim(ctx context.Context, id string) (bool, error) {
	token := uuid.NewString()

	ok, err := f.client.SetNX(ctx, f.key(id), token, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	if !ok {
		return false, nil
	}

	f.mu.Lock()
	f.tokens[id] = token
	f.mu.Unlock()
	return true, nil
}

var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

// Release drops a claim taken by this process. Claims held by others, or
// ones that already expired and were retaken, are left untouched.
func (f *InFlight) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	token, ok := f.tokens[id]
	delete(f.tokens, id)
	f.mu.Unlock()
	if !ok {
		return nil
	}

	_, err := releaseScript.Run(ctx, f.client, []string{f.key(id)}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}
