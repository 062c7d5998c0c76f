package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localRateMaxScopes = 10000

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateStore is an in-process RateLimitStore for single-instance runs
// without Redis. Each scope gets a token bucket refilled at limit per window.
type LocalRateStore struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

func NewLocalRateStore() *LocalRateStore {
	return &LocalRateStore{buckets: make(map[string]*localBucket), now: time.Now}
}

func (s *LocalRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[scope]
	if !ok {
		if len(s.buckets) >= localRateMaxScopes {
			s.evictIdle(now, window)
		}
		bucket = &localBucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))}
		s.buckets[scope] = bucket
	}
	bucket.lastSeen = now

	allowed := bucket.limiter.AllowN(now, 1)
	used := limit - int64(bucket.limiter.TokensAt(now))
	if !allowed {
		used = limit + 1
	}
	return allowed, used, nil
}

// evictIdle drops buckets untouched for a full window; those are full again.
func (s *LocalRateStore) evictIdle(now time.Time, window time.Duration) {
	for scope, bucket := range s.buckets {
		if now.Sub(bucket.lastSeen) >= window {
			delete(s.buckets, scope)
		}
	}
}
