package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestInFlight(t *testing.T, ttl time.Duration) (*InFlight, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewInFlight(client, ttl), mr, client
}

func TestInFlight_ClaimIsExclusiveAcrossInstances(t *testing.T) {
	first, _, client := newTestInFlight(t, time.Minute)
	second := NewInFlight(client, time.Minute)
	ctx := context.Background()

	ok, err := first.TryClaim(ctx, "appt-1")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = second.TryClaim(ctx, "appt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second instance must not claim a held id")
	}

	// Releasing an id this instance never claimed is a no-op.
	if err := second.Release(ctx, "appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := second.TryClaim(ctx, "appt-1"); ok {
		t.Fatal("foreign release must not drop the claim")
	}

	if err := first.Release(ctx, "appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := second.TryClaim(ctx, "appt-1"); !ok {
		t.Fatal("claim should be free after release")
	}
}

func TestInFlight_ClaimExpires(t *testing.T) {
	inflight, mr, client := newTestInFlight(t, 30*time.Second)
	ctx := context.Background()

	if ok, _ := inflight.TryClaim(ctx, "appt-1"); !ok {
		t.Fatal("claim failed")
	}
	if ttl := mr.TTL("inflight:complete:appt-1"); ttl != 30*time.Second {
		t.Fatalf("ttl = %s", ttl)
	}

	mr.FastForward(31 * time.Second)
	other := NewInFlight(client, 30*time.Second)
	if ok, _ := other.TryClaim(ctx, "appt-1"); !ok {
		t.Fatal("expired claim should be retaken")
	}

	// The stale holder must not remove the new claim.
	if err := inflight.Release(ctx, "appt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("inflight:complete:appt-1") {
		t.Fatal("stale release removed another holder's claim")
	}
}
