package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisGuard shares holds across every API instance using SETNX.
type RedisGuard struct {
	c      *redis.Client
	prefix string
	logger zerolog.Logger
}

func NewRedisGuard(c *redis.Client, prefix string, logger zerolog.Logger) *RedisGuard {
	if prefix == "" {
		prefix = "expedientes:inflight:"
	}
	return &RedisGuard{c: c, prefix: prefix, logger: logger.With().Str("component", "guard").Logger()}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	k := g.prefix + key
	token := uuid.NewString()
	ok, err := g.c.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire %s: %w", k, err)
	}
	if !ok {
		return func() {}, false, nil
	}
	return func() { g.release(k, token) }, true, nil
}

// release drops the hold. A failed release leaves the key held until its TTL
// runs out, so resubmits of the instance see InProgress until then.
func (g *RedisGuard) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, g.c, []string{key}, token).Err(); err != nil && err != redis.Nil {
		ttl, _ := g.c.PTTL(ctx, key).Result()
		g.logger.Warn().Err(err).Str("key", key).Dur("held_for", ttl).Msg("in-flight release failed, key stays held until expiry")
	}
}
