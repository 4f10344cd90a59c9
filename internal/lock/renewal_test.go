package lock

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_AutoRenewalKeepsLeaseAlive(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	l, err := New(client, "foobar", WithExpire(1), WithAutoRenewal(), WithRenewalInterval(150*time.Millisecond))
	require.NoError(t, err)

	ok, err := l.Acquire(ctx, false, 0)
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = l.Release(ctx) })

	// miniredis only counts TTLs down through FastForward. Age the lease by
	// 1.6s in four steps, giving the worker real time to tick between them:
	// an unrenewed one-second lease would be gone after the third step.
	for i := 0; i < 4; i++ {
		time.Sleep(400 * time.Millisecond)
		mr.FastForward(400 * time.Millisecond)
	}

	assert.True(t, mr.Exists("lock:foobar"), "auto-renewal must keep extending the TTL past the original expire")

	owner, err := l.GetOwnerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, l.ID(), owner)
}

func TestAutoRenewal_StopsWhenHandleDropped(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	l, err := New(client, "foobar", WithExpire(1), WithAutoRenewal(), WithRenewalInterval(150*time.Millisecond))
	require.NoError(t, err)

	ok, err := l.Acquire(ctx, false, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// Let a couple of ticks land so we know the worker is actually running,
	// not merely coasting on the original TTL.
	time.Sleep(400 * time.Millisecond)
	require.True(t, mr.Exists("lock:foobar"), "lease should still be alive after renewal has had a chance to run")

	// Drop the only strong reference and force a collection. The worker
	// holds just a weak.Pointer back to the handle (invariant 3), so once
	// this runs there is nothing left keeping it alive.
	l = nil
	runtime.GC()
	runtime.GC()

	// Whatever TTL the last successful renewal set, it tops out at one
	// second. miniredis only counts TTLs down through FastForward, so age
	// the lease by half a second, give a live worker real time for at least
	// two ticks (each would reset the TTL to a full second), then age it by
	// the rest: the key is gone only if no renewal landed in between.
	mr.FastForward(500 * time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	mr.FastForward(600 * time.Millisecond)

	assert.False(t, mr.Exists("lock:foobar"), "renewal worker must stop once its handle is unreachable, letting the lease expire")
}
