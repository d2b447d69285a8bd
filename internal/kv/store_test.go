package kv

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "clock"), mr
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "presets.default", []byte(`{"a":1}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "presets.custom", []byte(`[]`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "firstTime", []byte(`false`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "presets.default")
	if err != nil || !ok || string(v) != `{"a":1}` {
		t.Fatalf("Get: %q ok=%v err=%v", v, ok, err)
	}
	keys, err := s.Keys(ctx, "presets.")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"presets.custom", "presets.default"}) {
		t.Fatalf("Keys = %v", keys)
	}
	if err := s.Delete(ctx, "presets.custom"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "presets.custom"); ok {
		t.Fatalf("deleted key still present")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	s, mr := newRedisStore(t)
	exerciseStore(t, s)
	if !mr.Exists("clock:presets.default") {
		t.Fatalf("namespace not applied; keys=%v", mr.Keys())
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()
	_ = s.Set(ctx, "match:abc", []byte("x"), time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "match:abc"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestRedisStoreTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	if err := s.Set(ctx, "match:abc", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "match:abc"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.TLSConfig != nil {
		t.Fatalf("plain redis url enabled TLS")
	}
	tlsOpts, err := ParseRedisURL("rediss://u:p@cache.example:6380/2")
	if err != nil {
		t.Fatalf("ParseRedisURL rediss: %v", err)
	}
	if tlsOpts.TLSConfig == nil {
		t.Fatalf("rediss url must enable TLS")
	}
	if tlsOpts.Username != "u" || tlsOpts.Password != "p" || tlsOpts.DB != 2 {
		t.Fatalf("rediss opts = %+v", tlsOpts)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestRedisStoreKeysLiteralPrefix(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	for _, k := range []string{"saved.a*", "saved.abc", "saved.a?", "saved.[x]"} {
		if err := s.Set(ctx, k, []byte("1"), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx, "saved.a*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"saved.a*"}) {
		t.Fatalf("Keys(saved.a*) = %v", keys)
	}
	keys, err = s.Keys(ctx, "saved.[")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"saved.[x]"}) {
		t.Fatalf("Keys(saved.[) = %v", keys)
	}
}

func TestDialRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	s, err := DialRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), "")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()
	if err := s.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("raw value = %q", got)
	}
}
