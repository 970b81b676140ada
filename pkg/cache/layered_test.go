package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRemote struct {
	values map[string]string
	ttls   map[string]time.Duration
	gets   int
}

func (f *fakeRemote) Get(ctx context.Context, key string) (string, error) {
	f.gets++
	v, ok := f.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (f *fakeRemote) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	f.values[key] = value
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRemote) TTL(ctx context.Context, key string) (time.Duration, error) {
	if _, ok := f.values[key]; !ok {
		return -2, nil
	}
	return f.ttls[key], nil
}

func (f *fakeRemote) Close() error { return nil }

func TestLayeredGetPromotesToMemory(t *testing.T) {
	rem := &fakeRemote{values: map[string]string{"k": "v"}, ttls: map[string]time.Duration{"k": time.Minute}}
	lc := &LayeredCache{mem: NewMemoryCache(), remote: rem}
	defer lc.Close()
	ctx := context.Background()

	if v, err := lc.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("get: %q %v", v, err)
	}
	if v, err := lc.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("second get: %q %v", v, err)
	}
	if rem.gets != 1 {
		t.Fatalf("remote gets = %d, want 1 (promotion missed)", rem.gets)
	}
}

func TestLayeredBackfillHonorsRemoteTTL(t *testing.T) {
	rem := &fakeRemote{values: map[string]string{"k": "v"}, ttls: map[string]time.Duration{"k": 20 * time.Millisecond}}
	lc := &LayeredCache{mem: NewMemoryCache(), remote: rem}
	defer lc.Close()
	ctx := context.Background()

	if _, err := lc.Get(ctx, "k"); err != nil {
		t.Fatalf("get: %v", err)
	}

	// The remote copy expires; the promoted L1 copy must not outlive it.
	time.Sleep(40 * time.Millisecond)
	delete(rem.values, "k")

	if _, err := lc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after remote expiry, got %v", err)
	}
}
