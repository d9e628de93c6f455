package appointment

import (
	"context"
	"sync"
)

// InFlight tracks appointment ids with a completion call in progress.
// TryClaim must check and insert as a single atomic step.
type InFlight interface {
	TryClaim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// MemoryInFlight is an InFlight for a single process.
type MemoryInFlight struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryInFlight() *MemoryInFlight {
	return &MemoryInFlight{ids: make(map[string]struct{})}
}

func (m *MemoryInFlight) TryClaim(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.ids[id]; busy {
		return false, nil
	}
	m.ids[id] = struct{}{}
	return true, nil
}

func (m *MemoryInFlight) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, id)
	return nil
}

// Contains reports whether id is currently claimed.
func (m *MemoryInFlight) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok
}
