package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetAll forcibly deletes every lock this server knows about (every key
// matching "lock:*"), waking any waiters on each one. It is an
// administrative crash-recovery operation, never a coordination primitive,
// and runs as a single server-side program so it is safe under concurrent
// modification (spec.md §4.5, §9).
func ResetAll(ctx context.Context, client redis.Scripter, signalExpire time.Duration) (int64, error) {
	if signalExpire <= 0 {
		signalExpire = defaultSignalExpire
	}
	res, err := resetAllScript.Run(ctx, client, nil, signalExpire.Milliseconds()).Result()
	if err != nil {
		return 0, fmt.Errorf("redislock: reset all: %w", err)
	}
	return toInt64(res)
}
