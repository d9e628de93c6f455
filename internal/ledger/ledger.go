// Package ledger remembers the intended duration of slots opened through this
// service, keyed by the exact start timestamp string sent to the remote store.
// Entries expire after a retention window and the oldest are evicted once the
// store is full; a missing entry simply means the caller falls back to the
// default duration.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidEntry = errors.New("invalid ledger entry")

type Entry struct {
	Key             string    `json:"key"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store is the key-value contract every backend implements.
type Store interface {
	Put(ctx context.Context, key string, minutes int) error
	Get(ctx context.Context, key string) (Entry, bool, error)
	Len(ctx context.Context) (int, error)
}

// Policy bounds the ledger.
type Policy struct {
	Retention  time.Duration
	MaxEntries int
}

func DefaultPolicy() Policy {
	return Policy{
		Retention:  90 * 24 * time.Hour,
		MaxEntries: 500,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Retention <= 0 {
		p.Retention = d.Retention
	}
	if p.MaxEntries <= 0 {
		p.MaxEntries = d.MaxEntries
	}
	return p
}

func (p Policy) expired(e Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > p.Retention
}

func validate(key string, minutes int) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	}
	if minutes <= 0 {
		return fmt.Errorf("%w: duration %d for %s", ErrInvalidEntry, minutes, key)
	}
	return nil
}

// Durations is a resolved snapshot of ledger lookups.
type Durations map[string]int

func (d Durations) DurationFor(timestamp string) (int, bool) {
	m, ok := d[timestamp]
	return m, ok
}

// Clone returns a copy that can be extended without touching d.
func (d Durations) Clone() Durations {
	out := make(Durations, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Resolve looks up every key once. Lookups that fail are left out of the
// result and reported through the joined error; the partial result is usable.
func Resolve(ctx context.Context, store Store, keys []string) (Durations, error) {
	out := make(Durations, len(keys))
	var errs []error
	for _, k := range keys {
		if _, seen := out[k]; seen {
			continue
		}
		e, ok, err := store.Get(ctx, k)
		if err != nil {
			errs = append(errs, fmt.Errorf("ledger get %s: %w", k, err))
			continue
		}
		if ok {
			out[k] = e.DurationMinutes
		}
	}
	return out, errors.Join(errs...)
}
