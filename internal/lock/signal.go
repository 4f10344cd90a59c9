package lock

import "time"

const (
	lockKeyPrefix   = "lock:"
	signalKeyPrefix = "lock-signal:"
)

func lockKeyFor(name string) string   { return lockKeyPrefix + name }
func signalKeyFor(name string) string { return signalKeyPrefix + name }

// blpopTimeout picks the effective BLPOP wait: the smaller of the caller's
// explicit timeout and the lock's expire, or 0 ("block forever") when
// neither is set. The signal list is purely a wakeup hint (spec.md §4.4) —
// BLPOP returning is never treated as proof of ownership, only a cue to
// retry SET NX.
func blpopTimeout(timeoutSeconds, expireSeconds int) time.Duration {
	effective := 0
	switch {
	case timeoutSeconds > 0 && expireSeconds > 0:
		effective = min(timeoutSeconds, expireSeconds)
	case timeoutSeconds > 0:
		effective = timeoutSeconds
	case expireSeconds > 0:
		effective = expireSeconds
	}
	return time.Duration(effective) * time.Second
}
