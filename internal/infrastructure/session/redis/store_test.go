package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreRoundTripAndExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, domain.Principal{UserID: 7, Email: "a@city.test", Role: domain.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !mr.Exists("session:" + id) {
		t.Fatalf("expected session key in redis")
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.UserID != 7 || !got.IsAdmin() {
		t.Fatalf("unexpected principal: %+v", got)
	}

	mr.FastForward(2 * time.Hour)
	expired, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() after expiry error = %v", err)
	}
	if expired != nil {
		t.Fatalf("expected expired session to be absent")
	}
}

func TestStoreSlidingTTL(t *testing.T) {
	store, mr := newTestStore(t)
	store.WithSlidingTTL(time.Hour)
	ctx := context.Background()

	id, err := store.Create(ctx, domain.Principal{UserID: 1}, time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	mr.FastForward(50 * time.Minute)
	if _, err := store.Get(ctx, id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ttl := mr.TTL("session:" + id); ttl != time.Hour {
		t.Fatalf("expected ttl reset to 1h, got %s", ttl)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, domain.Principal{UserID: 1}, time.Minute)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil || got != nil {
		t.Fatalf("expected deleted session to be absent, got %+v, %v", got, err)
	}
}

func TestStoreDropsCorruptPayload(t *testing.T) {
	store, mr := newTestStore(t)
	if err := mr.Set("session:broken", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := store.Get(context.Background(), "broken")
	if err != nil || got != nil {
		t.Fatalf("expected corrupt session to be treated as absent, got %+v, %v", got, err)
	}
	if mr.Exists("session:broken") {
		t.Fatalf("expected corrupt session to be removed")
	}
}
