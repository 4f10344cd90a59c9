package lock

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// The four server-side programs the protocol is built on. All are
// addressed by positional KEYS/ARGV and are registered once per
// connection; redis.Script already caches its SHA1 and falls back from
// EVALSHA to EVAL on a NOSCRIPT reply, which is the "robust call with
// fallback" spec.md §4.1 asks for.
const (
	unlockScriptSource = `
if redis.call("get", KEYS[1]) ~= ARGV[1] then
    return 1
else
    redis.call("del", KEYS[2])
    redis.call("lpush", KEYS[2], 1)
    redis.call("pexpire", KEYS[2], ARGV[2])
    redis.call("del", KEYS[1])
    return 0
end
`

	extendScriptSource = `
if redis.call("get", KEYS[1]) ~= ARGV[1] then
    return 1
elseif redis.call("ttl", KEYS[1]) < 0 then
    return 2
else
    redis.call("expire", KEYS[1], ARGV[2])
    return 0
end
`

	resetScriptSource = `
redis.call("del", KEYS[2])
redis.call("lpush", KEYS[2], 1)
redis.call("pexpire", KEYS[2], ARGV[1])
return redis.call("del", KEYS[1])
`

	resetAllScriptSource = `
local locks = redis.call("keys", "lock:*")
local signal
local count = 0
for _, name in pairs(locks) do
    signal = "lock-signal:" .. string.sub(name, 6)
    redis.call("del", signal)
    redis.call("lpush", signal, 1)
    redis.call("pexpire", signal, ARGV[1])
    redis.call("del", name)
    count = count + 1
end
return count
`
)

var (
	unlockScript   = redis.NewScript(unlockScriptSource)
	extendScript   = redis.NewScript(extendScriptSource)
	resetScript    = redis.NewScript(resetScriptSource)
	resetAllScript = redis.NewScript(resetAllScriptSource)
)

// Register pre-loads all four scripts into the server's script cache. It is
// not required for correctness — every script call falls back to EVAL on
// its own NOSCRIPT miss — but calling it once at startup avoids paying that
// extra round-trip on a process's first lock operation.
func Register(ctx context.Context, client redis.Scripter) error {
	for name, script := range map[string]*redis.Script{
		"UNLOCK":     unlockScript,
		"EXTEND":     extendScript,
		"RESET":      resetScript,
		"RESET_ALL":  resetAllScript,
	} {
		if err := script.Load(ctx, client).Err(); err != nil {
			return fmt.Errorf("redislock: load %s script: %w", name, err)
		}
	}
	return nil
}

// toInt64 coerces a script's reply into an int64 return code.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("redislock: unexpected script reply type %T", v)
	}
}
