// Command lockbench measures acquire/release throughput under
// concurrent contention, mirroring the original project's
// examples/bench.py. Unlike the Python original, which fans out across
// OS processes to route around the GIL, this measures goroutines
// directly — Go's scheduler does not need the workaround.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kneutral-org/redislock/internal/lock"
)

var (
	durations    = []time.Duration{0, time.Millisecond, 10 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	concurrency  = []int{1, 2, 3, 4, 6, 12, 24, 48}
	runFor       = 1 * time.Second
)

func main() {
	addr := "localhost:6379"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "flushdb: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("==========  ========  ===========  ========  ==========  =====  =====")
	fmt.Println("Duration    Concurrency  Sum       Avg         Min    Max")
	fmt.Println("==========  ========  ===========  ========  ==========  =====  =====")

	for _, d := range durations {
		for _, n := range concurrency {
			sum, avg, min, max := runOnce(client, d, n)
			fmt.Printf("%-10.3f  %-11d  %-8d  %-10.2f  %-5d  %-5d\n",
				d.Seconds(), n, sum, avg, min, max)
		}
	}

	fmt.Println("==========  ========  ===========  ========  ==========  =====  =====")
}

// runOnce spawns n goroutines that each repeatedly acquire, hold for
// holdFor, and release "test-lock" until deadline elapses, and reports
// how many iterations each goroutine completed.
func runOnce(client *redis.Client, holdFor time.Duration, n int) (sum int64, avg float64, min, max int64) {
	results := make([]int64, n)
	var wg sync.WaitGroup
	deadline := time.Now().Add(runFor)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ctx := context.Background()
			var iterations int64
			for time.Now().Before(deadline) {
				l, err := lock.New(client, "test-lock", lock.WithExpire(5))
				if err != nil {
					return
				}
				if _, err := l.Acquire(ctx, true, 0); err != nil {
					return
				}
				atomic.AddInt64(&iterations, 1)
				if holdFor > 0 {
					time.Sleep(holdFor)
				}
				_ = l.Release(ctx)
			}
			results[idx] = iterations
		}(i)
	}
	wg.Wait()

	min, max = results[0], results[0]
	for _, r := range results {
		sum += r
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	avg = float64(sum) / float64(n)
	return sum, avg, min, max
}
