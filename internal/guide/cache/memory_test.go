package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	if err := store.Set(ctx, "k1", "v1", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, err := store.Get(ctx, "k1")
	if err != nil || val != "v1" {
		t.Errorf("Get = %q, %v", val, err)
	}

	if err := store.Delete(ctx, "k1", "k2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k1", "v1", 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}

	// ttl=0 永不过期
	if err := store.Set(ctx, "k2", "v2", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, err := store.Get(ctx, "k2"); err != nil || val != "v2" {
		t.Errorf("Get = %q, %v", val, err)
	}
}
