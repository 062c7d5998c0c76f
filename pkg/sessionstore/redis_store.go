package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type kv interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	StorefrontSessionKey(sessionID string) string
}

// RedisStore keeps each session as one JSON document with a sliding TTL.
type RedisStore struct {
	client kv
	ttl    time.Duration
}

func NewRedisStore(client kv, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return New(""), nil
	}
	raw, err := r.client.Get(ctx, r.client.StorefrontSessionKey(id))
	if errors.Is(err, redislib.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess, err := decode(id, []byte(raw))
	if err != nil {
		// A corrupt document is replaced rather than failing every request.
		fresh := New(id)
		fresh.MarkModified()
		return fresh, nil
	}
	return sess, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	payload, err := s.encode()
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.client.StorefrontSessionKey(s.id), string(payload), r.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.modified = false
	s.isNew = false
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.client.StorefrontSessionKey(id))
}
