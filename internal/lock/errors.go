package lock

import (
	"errors"
	"fmt"
)

// Sentinel errors returned at the boundary of the lock handle. Callers
// should compare against these with errors.Is; transport errors from the
// underlying Redis client are returned unwrapped (or wrapped with %w) and
// are not part of this taxonomy.
var (
	// ErrAlreadyAcquired is returned by Acquire when the handle already
	// believes it holds the lock.
	ErrAlreadyAcquired = errors.New("redislock: lock already acquired by this handle")

	// ErrNotAcquired is returned by Release or Extend when the stored
	// owner differs from the caller's id, or the lock key is absent.
	ErrNotAcquired = errors.New("redislock: lock is not held by this identifier")

	// ErrNotExpirable is returned by Extend when the lock key has no TTL.
	ErrNotExpirable = errors.New("redislock: lock has no assigned expiration")

	// ErrInvalidTimeout is returned by Acquire when timeoutSeconds is negative.
	ErrInvalidTimeout = errors.New("redislock: timeout must be a positive number of seconds")

	// ErrTimeoutNotUsable is returned by Acquire when a timeout is supplied
	// together with blocking=false.
	ErrTimeoutNotUsable = errors.New("redislock: timeout cannot be used when blocking is false")

	// ErrTimeoutTooLarge is returned by Acquire when timeoutSeconds exceeds
	// the configured expire and auto-renewal is not enabled.
	ErrTimeoutTooLarge = errors.New("redislock: timeout cannot be greater than expire")

	// ErrAlreadyStarted is returned when the renewal worker is started twice.
	ErrAlreadyStarted = errors.New("redislock: renewal worker already started")

	// ErrExpireRequired is returned by Extend when neither the call nor the
	// constructor supplied an expiration.
	ErrExpireRequired = errors.New("redislock: expire must be provided, either at construction or to Extend")

	// ErrNegativeExpire is returned by Extend when expireSeconds is negative.
	ErrNegativeExpire = errors.New("redislock: a negative expire is not acceptable")

	// ErrAutoRenewalRequiresExpire is returned by New when auto-renewal is
	// requested without an expire.
	ErrAutoRenewalRequiresExpire = errors.New("redislock: expire is required when auto-renewal is enabled")
)

// ProtocolError indicates a script returned an error code this client does
// not understand — a fatal condition, usually meaning the client and the
// server-side Lua programs have drifted out of sync.
type ProtocolError struct {
	Script string
	Code   int64
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("redislock: unsupported return code %d from %s script", e.Code, e.Script)
}
