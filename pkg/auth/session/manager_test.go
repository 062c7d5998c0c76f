package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttl: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("access:%s", accessID)
}

func newTestManager(t *testing.T, store *mockStore) *Manager {
	t.Helper()
	mgr, err := newManager(store, store, config.JWTConfig{ExpirationMinutes: 15})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr
}

func TestOpenHasRevoke(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	mgr := newTestManager(t, store)
	userID := uuid.New()

	accessID, err := mgr.Open(ctx, userID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.data["access:"+accessID] != userID.String() {
		t.Fatalf("expected user id stored, got %v", store.data)
	}
	if store.ttl["access:"+accessID] != 15*time.Minute {
		t.Fatalf("expected access ttl, got %v", store.ttl["access:"+accessID])
	}

	ok, err := mgr.HasSession(ctx, accessID)
	if err != nil || !ok {
		t.Fatalf("expected session present, ok=%v err=%v", ok, err)
	}

	if err := mgr.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = mgr.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected session gone, ok=%v err=%v", ok, err)
	}
}

func TestHasSessionPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	mgr := newTestManager(t, store)

	if _, err := mgr.HasSession(context.Background(), "abc"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestManagerValidation(t *testing.T) {
	store := newMockStore()
	if _, err := newManager(store, store, config.JWTConfig{}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 5}); err == nil {
		t.Fatal("expected error for nil client")
	}

	mgr := newTestManager(t, store)
	if _, err := mgr.Open(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil user")
	}
	if err := mgr.Revoke(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
	if _, err := mgr.HasSession(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
