package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/microblog/internal/logger"
)

// tokenBucketScript refills a bucket of capacity tokens at rate tokens per
// second and takes the requested amount when available. Returns 1 when allowed.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local info = redis.call("HMGET", key, "tokens", "last_refill")
	local tokens = tonumber(info[1])
	local last_refill = tonumber(info[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = math.max(0, now - last_refill)
	local filled_tokens = math.min(capacity, tokens + (delta / 1000 * rate))

	local allowed = 0
	if filled_tokens >= requested then
		filled_tokens = filled_tokens - requested
		allowed = 1
	end
	redis.call("HSET", key, "tokens", filled_tokens, "last_refill", now)
	redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)

	return allowed
`)

// RateLimitRepository is a Redis token bucket keyed by caller.
type RateLimitRepository struct {
	client   *redis.Client
	prefix   string
	capacity int
	rate     float64
}

// NewRateLimitRepository creates a limiter allowing bursts of capacity
// requests refilled at rate per second.
func NewRateLimitRepository(client *redis.Client, prefix string, capacity int, rate float64) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: prefix, capacity: capacity, rate: rate}
}

// Allow takes one token from the bucket of key.
func (r *RateLimitRepository) Allow(ctx context.Context, key string) (bool, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%s", r.prefix, key)
	now := time.Now().UnixMilli()

	allowed, err := tokenBucketScript.Run(ctx, r.client, []string{bucket}, r.capacity, r.rate, now, 1).Int()

	logger.FromContext(ctx).Debugw("rate limit",
		"key", bucket,
		"allowed", allowed,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}
