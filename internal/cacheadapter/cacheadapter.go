// Package cacheadapter implements a double-checked read-through cache on
// top of internal/lock, demonstrating a non-core consumer of the lock
// handle: it depends on lock, but lock never depends on it.
package cacheadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kneutral-org/redislock/internal/lock"
)

const cacheLockPrefix = "cache-lock:"

// Adapter wraps a Redis client with a read-through, single-flight-by-lock
// cache.
type Adapter struct {
	client *redis.Client
	opts   []lock.Option
}

// New constructs a cache adapter. opts are applied to every lock Adapter
// creates internally (e.g. WithEventSink for observability).
func New(client *redis.Client, opts ...lock.Option) *Adapter {
	return &Adapter{client: client, opts: opts}
}

// Lock returns a fresh lock handle guarding the given cache key, distinct
// from the cache key itself so cache reads never contend with the lock's
// own bookkeeping keys.
func (a *Adapter) Lock(key string, expire time.Duration, opts ...lock.Option) *lock.Lock {
	seconds := int(expire.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	allOpts := append([]lock.Option{lock.WithExpire(seconds)}, a.opts...)
	allOpts = append(allOpts, opts...)
	l, err := lock.New(a.client, cacheLockPrefix+key, allOpts...)
	if err != nil {
		// The lock's expire is clamped to at least one second above, so
		// only an invalid caller-supplied option (such as a bad
		// WithRenewalInterval) can fail here.
		panic(fmt.Sprintf("redislock: cacheadapter: unexpected option error: %v", err))
	}
	return l
}

// GetOrSetUnderLock implements the double-checked cache pattern: read,
// and only on a miss take the per-key lock, re-read (another goroutine
// may have populated it while we waited), and otherwise call producer
// exactly once to fill the cache.
func (a *Adapter) GetOrSetUnderLock(ctx context.Context, key string, expire time.Duration, producer func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, err := a.get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	l := a.Lock(key, expire)
	if _, err := l.Acquire(ctx, true, 0); err != nil {
		return nil, fmt.Errorf("redislock: cacheadapter: acquire %q: %w", key, err)
	}
	defer func() { _ = l.Release(ctx) }()

	if v, ok, err := a.get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		return nil, fmt.Errorf("redislock: cacheadapter: produce %q: %w", key, err)
	}
	if err := a.client.Set(ctx, key, v, expire).Err(); err != nil {
		return nil, fmt.Errorf("redislock: cacheadapter: set %q: %w", key, err)
	}
	return v, nil
}

func (a *Adapter) get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := a.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redislock: cacheadapter: get %q: %w", key, err)
	}
	return v, true, nil
}
