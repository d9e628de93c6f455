package ledger

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps entries in a size-bounded expirable LRU. Reads use Peek so
// that recency is never refreshed: eviction order stays oldest-created-first.
type MemoryStore struct {
	cache  *expirable.LRU[string, Entry]
	policy Policy
	now    func() time.Time
}

func NewMemoryStore(policy Policy) *MemoryStore {
	policy = policy.withDefaults()
	return &MemoryStore{
		cache:  expirable.NewLRU[string, Entry](policy.MaxEntries, nil, policy.Retention),
		policy: policy,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for retention checks.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Put(_ context.Context, key string, minutes int) error {
	if err := validate(key, minutes); err != nil {
		return err
	}
	// re-adding moves the key to the front, which matches a fresh createdAt
	m.cache.Add(key, Entry{Key: key, DurationMinutes: minutes, CreatedAt: m.now()})
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := m.cache.Peek(key)
	if !ok {
		return Entry{}, false, nil
	}
	if m.policy.expired(e, m.now()) {
		m.cache.Remove(key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	return m.cache.Len(), nil
}

// DurationFor lets the memory store serve directly as a calendar duration source.
func (m *MemoryStore) DurationFor(timestamp string) (int, bool) {
	e, ok, _ := m.Get(context.Background(), timestamp)
	return e.DurationMinutes, ok
}
