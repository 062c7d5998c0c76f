package sessionstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

func TestNewMintsIDForInvalidInput(t *testing.T) {
	s := New("not-a-session")
	if !ValidID(s.ID()) || !s.IsNew() {
		t.Fatalf("expected fresh valid id, got %q new=%v", s.ID(), s.IsNew())
	}

	id := NewID()
	kept := New(id)
	if kept.ID() != id || kept.IsNew() {
		t.Fatalf("expected id to be kept, got %q new=%v", kept.ID(), kept.IsNew())
	}
}

func TestSessionMutationsTrackModified(t *testing.T) {
	s := New(NewID())
	if s.Modified() {
		t.Fatal("new session should not be modified")
	}

	s.Delete("missing")
	if s.Modified() {
		t.Fatal("deleting a missing key should not mark modified")
	}

	s.Set(KeyCouponSuccess, "applied")
	if !s.Modified() {
		t.Fatal("Set should mark modified")
	}
	if got := s.PopString(KeyCouponSuccess); got != "applied" {
		t.Fatalf("unexpected pop %q", got)
	}
	if got := s.PopString(KeyCouponSuccess); got != "" {
		t.Fatalf("one-shot value should be gone, got %q", got)
	}
}

func TestMemoryStoreRoundTripKeepsNumbers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := store.Load(ctx, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Set(KeyCart, map[string]any{"p1": map[string]any{"qty": "1.25"}, "p2": 3})
	s.Set(KeyFavorites, []string{"p1"})
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Modified() || s.IsNew() {
		t.Fatal("save should reset modified and new flags")
	}

	loaded, err := store.Load(ctx, s.ID())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	cart := loaded.Map(KeyCart)
	if _, ok := cart["p2"].(json.Number); !ok {
		t.Fatalf("expected json.Number for legacy qty, got %T", cart["p2"])
	}
	if favs := loaded.StringSlice(KeyFavorites); len(favs) != 1 || favs[0] != "p1" {
		t.Fatalf("unexpected favorites %v", favs)
	}

	if err := store.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, _ := store.Load(ctx, s.ID())
	if gone.Map(KeyCart) != nil {
		t.Fatal("expected empty session after delete")
	}
}

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) StorefrontSessionKey(id string) string { return "sess:" + id }

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewRedisStore(kv, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	s, err := store.Load(ctx, NewID())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Set(KeyCouponCode, "SAVE10")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.ttls["sess:"+s.ID()] != time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", kv.ttls)
	}

	loaded, err := store.Load(ctx, s.ID())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.String(KeyCouponCode) != "SAVE10" {
		t.Fatalf("unexpected coupon %q", loaded.String(KeyCouponCode))
	}

	kv.data["sess:"+s.ID()] = "{not json"
	corrupt, err := store.Load(ctx, s.ID())
	if err != nil {
		t.Fatalf("corrupt documents should be replaced, got %v", err)
	}
	if corrupt.ID() != s.ID() || !corrupt.Modified() || corrupt.String(KeyCouponCode) != "" {
		t.Fatal("expected a fresh modified session with the same id")
	}

	if err := store.Delete(ctx, s.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := kv.data["sess:"+s.ID()]; ok {
		t.Fatal("expected document removed")
	}
}

func TestNewRedisStoreValidation(t *testing.T) {
	if _, err := NewRedisStore(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisStore(newFakeKV(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
