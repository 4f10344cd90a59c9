// Command lockdemo demonstrates a single acquire/hold/release cycle
// against a real Redis server, mirroring the original project's
// examples/plain.py: run two copies against the same name and watch the
// second wait for the first to finish.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kneutral-org/redislock/internal/lock"
	"github.com/kneutral-org/redislock/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: lockdemo <lock-name> [redis-addr]")
		os.Exit(1)
	}
	name := os.Args[1]
	addr := "localhost:6379"
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}

	logger := logging.NewPrettyLogger("lockdemo", "debug")
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	l, err := lock.New(client, name, lock.WithExpire(5))
	if err != nil {
		logger.Fatal().Err(err).Msg("construct lock")
	}

	ctx := context.Background()
	scoped := logging.LockLogger(logger, name, l.ID())

	scoped.Info().Msg("waiting to acquire...")
	if _, err := l.Acquire(ctx, true, 0); err != nil {
		scoped.Fatal().Err(err).Msg("acquire failed")
	}

	scoped.Info().Msg("got lock, holding...")
	time.Sleep(50 * time.Millisecond)
	scoped.Info().Msg("done, releasing")

	if err := l.Release(ctx); err != nil {
		scoped.Fatal().Err(err).Msg("release failed")
	}
}
