// Package lock implements a distributed mutual-exclusion primitive backed
// by a Redis-compatible key/value server. A lock is identified by a
// user-chosen name and held by at most one client at a time; safety is
// enforced by identity-checked Lua scripts rather than by trusting a
// client's local notion of ownership.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Action identifies a lifecycle event reported to an EventSink.
type Action string

const (
	ActionAcquired Action = "acquired"
	ActionReleased Action = "released"
	ActionExtended Action = "extended"
	ActionReset    Action = "reset"
	ActionResetAll Action = "reset_all"
	ActionRenewed  Action = "renewed"
)

// Event is a best-effort lifecycle notification. Sinks must not block or
// mutate any lock state; they exist purely for observability.
type Event struct {
	LockName string
	OwnerID  string
	Action   Action
	At       time.Time
}

// EventSink receives lock lifecycle events. Implementations must be safe
// for concurrent use and must return promptly — Observe is called while
// holding no lock-internal state, but a slow sink will delay the caller
// that triggered the event.
type EventSink interface {
	Observe(Event)
}

// defaultSignalExpire is the signal list TTL (spec.md §3), chosen so that
// stale wake tokens self-evict quickly without needing a reaper.
const defaultSignalExpire = 1000 * time.Millisecond

// Lock is the user-facing handle for a single named distributed lock. A
// handle's identifier never changes after construction (invariant 2); a
// handle must not be shared across goroutines without external
// synchronization unless noted otherwise.
type Lock struct {
	client *redis.Client

	name      string
	key       string
	signalKey string
	id        string

	hasExpire    bool
	expireSecs   int
	autoRenewal  bool
	renewalEvery time.Duration
	signalExpire time.Duration

	sink EventSink

	mu      sync.Mutex
	held    bool
	renewer *renewalWorker
}

// Option configures a Lock at construction time.
type Option func(*Lock) error

// WithExpire sets the lease length in whole seconds. Required when
// WithAutoRenewal is used.
func WithExpire(seconds int) Option {
	return func(l *Lock) error {
		if seconds <= 0 {
			return fmt.Errorf("redislock: expire must be positive, got %d", seconds)
		}
		l.hasExpire = true
		l.expireSecs = seconds
		return nil
	}
}

// WithID assigns an explicit identifier to the handle instead of
// generating a random one. Per spec.md §3, an explicit id marks the
// handle as holding a *borrowed identity*, not as already-held — Acquire
// must still be called.
func WithID(id string) Option {
	return func(l *Lock) error {
		l.id = id
		return nil
	}
}

// WithIDBytes is like WithID but accepts raw bytes, matching the
// constructor contract in spec.md §6: bytes are used as-is when they
// decode as ASCII, and base64-encoded otherwise.
func WithIDBytes(id []byte) Option {
	return func(l *Lock) error {
		l.id = identifierFromBytes(id)
		return nil
	}
}

// WithAutoRenewal enables the background renewal worker. WithExpire must
// also be supplied.
func WithAutoRenewal() Option {
	return func(l *Lock) error {
		l.autoRenewal = true
		return nil
	}
}

// WithRenewalInterval overrides the default renewal interval
// (2*expire/3). With WithAutoRenewal, New rejects an interval that is not
// positive or not strictly less than expire.
func WithRenewalInterval(d time.Duration) Option {
	return func(l *Lock) error {
		l.renewalEvery = d
		return nil
	}
}

// WithSignalExpire overrides the signal list TTL (default 1000ms).
// Increase it for very slow waiters.
func WithSignalExpire(d time.Duration) Option {
	return func(l *Lock) error {
		if d <= 0 {
			return fmt.Errorf("redislock: signal expire must be positive")
		}
		l.signalExpire = d
		return nil
	}
}

// WithEventSink attaches an observer for lifecycle events.
func WithEventSink(sink EventSink) Option {
	return func(l *Lock) error {
		l.sink = sink
		return nil
	}
}

// New constructs a Lock handle for the given name. The handle starts
// unheld; callers must call Acquire before relying on mutual exclusion.
func New(client *redis.Client, name string, opts ...Option) (*Lock, error) {
	l := &Lock{
		client:       client,
		name:         name,
		key:          lockKeyFor(name),
		signalKey:    signalKeyFor(name),
		signalExpire: defaultSignalExpire,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.autoRenewal && !l.hasExpire {
		return nil, ErrAutoRenewalRequiresExpire
	}
	if l.id == "" {
		id, err := generateIdentifier()
		if err != nil {
			return nil, fmt.Errorf("redislock: generate identifier: %w", err)
		}
		l.id = id
	}
	if l.renewalEvery == 0 && l.hasExpire {
		l.renewalEvery = time.Duration(float64(l.expireSecs) * 2 / 3 * float64(time.Second))
	}
	if l.autoRenewal && (l.renewalEvery <= 0 || l.renewalEvery >= time.Duration(l.expireSecs)*time.Second) {
		return nil, fmt.Errorf("redislock: renewal interval must be positive and less than expire, got %v", l.renewalEvery)
	}
	return l, nil
}

// ID returns the identifier this handle stores as the lock value.
func (l *Lock) ID() string { return l.id }

// Name returns the user-supplied lock name (without the "lock:" prefix).
func (l *Lock) Name() string { return l.name }

// Held reports whether this handle believes it currently holds the lock.
// It is local-only bookkeeping, not a round-trip to the server; use
// GetOwnerID or Locked to consult authoritative state.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Acquire attempts to take the lock. With blocking=true it waits, woken by
// the release-side signal list, until either it succeeds or an explicit
// timeoutSeconds budget is exhausted. timeoutSeconds of 0 means "no
// explicit timeout" (wait using expire, or forever if expire is unset).
func (l *Lock) Acquire(ctx context.Context, blocking bool, timeoutSeconds int) (bool, error) {
	if l.Held() {
		return false, ErrAlreadyAcquired
	}
	if !blocking && timeoutSeconds != 0 {
		return false, ErrTimeoutNotUsable
	}
	if timeoutSeconds < 0 {
		return false, ErrInvalidTimeout
	}
	if timeoutSeconds > 0 && l.hasExpire && !l.autoRenewal && timeoutSeconds > l.expireSecs {
		return false, ErrTimeoutTooLarge
	}

	wait := blpopTimeout(timeoutSeconds, l.expireSecsOrZero())
	timedOut := false
	for {
		acquired, err := l.trySet(ctx)
		if err != nil {
			return false, err
		}
		if acquired {
			l.mu.Lock()
			l.held = true
			l.mu.Unlock()
			l.notify(ActionAcquired)
			if l.autoRenewal {
				if err := l.startRenewal(); err != nil {
					return false, err
				}
			}
			return true, nil
		}
		if timedOut {
			return false, nil
		}
		if !blocking {
			return false, nil
		}
		_, err = l.client.BLPop(ctx, wait, l.signalKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, err
		}
		if errors.Is(err, redis.Nil) && timeoutSeconds > 0 {
			timedOut = true
		}
	}
}

func (l *Lock) expireSecsOrZero() int {
	if l.hasExpire {
		return l.expireSecs
	}
	return 0
}

func (l *Lock) trySet(ctx context.Context) (bool, error) {
	var ttl time.Duration
	if l.hasExpire {
		ttl = time.Duration(l.expireSecs) * time.Second
	}
	ok, err := l.client.SetNX(ctx, l.key, l.id, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redislock: acquire %q: %w", l.name, err)
	}
	return ok, nil
}

// Release releases the lock if this handle's identifier still owns it.
// It always stops any running renewal worker first, synchronously, so no
// extend traffic is in flight once Release returns.
func (l *Lock) Release(ctx context.Context) error {
	l.stopRenewalIfRunning()

	res, err := unlockScript.Run(ctx, l.client, []string{l.key, l.signalKey}, l.id, l.signalExpireMillis()).Result()
	if err != nil {
		return fmt.Errorf("redislock: release %q: %w", l.name, err)
	}
	code, err := toInt64(res)
	if err != nil {
		return err
	}
	switch code {
	case 0:
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
		l.notify(ActionReleased)
		return nil
	case 1:
		return ErrNotAcquired
	default:
		return &ProtocolError{Script: "UNLOCK", Code: code}
	}
}

// Extend refreshes the lock's TTL. expireSeconds of 0 reuses the value
// supplied at construction. Extend may be called from any handle sharing
// this handle's identifier, not only the one that acquired the lock.
func (l *Lock) Extend(ctx context.Context, expireSeconds int) error {
	if err := l.doExtend(ctx, expireSeconds); err != nil {
		return err
	}
	l.notify(ActionExtended)
	return nil
}

// doExtend runs the EXTEND script and maps its return code, without
// emitting a lifecycle event — the renewal worker calls this directly so
// it can report ActionRenewed instead of ActionExtended.
func (l *Lock) doExtend(ctx context.Context, expireSeconds int) error {
	var expire int
	switch {
	case expireSeconds < 0:
		return ErrNegativeExpire
	case expireSeconds > 0:
		expire = expireSeconds
	case l.hasExpire:
		expire = l.expireSecs
	default:
		return ErrExpireRequired
	}

	res, err := extendScript.Run(ctx, l.client, []string{l.key, l.signalKey}, l.id, expire).Result()
	if err != nil {
		return fmt.Errorf("redislock: extend %q: %w", l.name, err)
	}
	code, err := toInt64(res)
	if err != nil {
		return err
	}
	switch code {
	case 0:
		return nil
	case 1:
		return ErrNotAcquired
	case 2:
		return ErrNotExpirable
	default:
		return &ProtocolError{Script: "EXTEND", Code: code}
	}
}

// Reset unconditionally clears this lock's server-side state and wakes any
// waiters. It is an administrative operation for crash recovery, not a
// coordination primitive — it does not check ownership.
func (l *Lock) Reset(ctx context.Context) error {
	l.stopRenewalIfRunning()

	_, err := resetScript.Run(ctx, l.client, []string{l.key, l.signalKey}, l.signalExpireMillis()).Result()
	if err != nil {
		return fmt.Errorf("redislock: reset %q: %w", l.name, err)
	}
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
	l.notify(ActionReset)
	return nil
}

// GetOwnerID returns the identifier currently stored under this lock's key,
// or "" if no client holds it.
func (l *Lock) GetOwnerID(ctx context.Context) (string, error) {
	v, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redislock: get owner of %q: %w", l.name, err)
	}
	return decodeOwnerValue([]byte(v)), nil
}

// Locked reports whether the lock key exists at all, regardless of which
// client (if any) holds it.
func (l *Lock) Locked(ctx context.Context) (bool, error) {
	n, err := l.client.Exists(ctx, l.key).Result()
	if err != nil {
		return false, fmt.Errorf("redislock: check %q: %w", l.name, err)
	}
	return n == 1, nil
}

func (l *Lock) signalExpireMillis() int64 {
	return l.signalExpire.Milliseconds()
}

func (l *Lock) notify(action Action) {
	if l.sink == nil {
		return
	}
	l.sink.Observe(Event{LockName: l.name, OwnerID: l.id, Action: action, At: time.Now()})
}

func (l *Lock) startRenewal() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.renewer != nil {
		return ErrAlreadyStarted
	}
	l.renewer = startRenewalWorker(l)
	return nil
}

func (l *Lock) stopRenewalIfRunning() {
	l.mu.Lock()
	w := l.renewer
	l.renewer = nil
	l.mu.Unlock()
	if w != nil {
		w.stop()
	}
}
