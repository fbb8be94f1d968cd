package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "movie-api/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and conditionally records in one step.
// Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. (now - window))
local count = redis.call('ZCARD', key)
if count >= max then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local score = now
	if oldest[2] then
		score = tonumber(oldest[2])
	end
	return {0, score}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, now}
`)

type RedisActionAttemptOption func(*redisActionAttemptRepository)

func WithActionKeyPrefix(prefix string) RedisActionAttemptOption {
	return func(r *redisActionAttemptRepository) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

type redisActionAttemptRepository struct {
	rdb    redis.Scripter
	prefix string
}

func NewRedisActionAttemptRepository(rdb redis.Scripter, opts ...RedisActionAttemptOption) ActionAttemptRepository {
	r := &redisActionAttemptRepository{
		rdb:    rdb,
		prefix: "actions",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *redisActionAttemptRepository) key(identifier, action string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, action, identifier)
}

func (r *redisActionAttemptRepository) CheckAndRecord(ctx context.Context, identifier, action string, maxAttempts int, window time.Duration, now time.Time) (ActionVerdict, error) {
	res, err := slidingWindowScript.Run(ctx, r.rdb,
		[]string{r.key(identifier, action)},
		now.UnixMilli(), window.Milliseconds(), maxAttempts, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return ActionVerdict{}, apperrors.Infra(err, "action limiter check failed")
	}
	if len(res) != 2 {
		return ActionVerdict{}, apperrors.Infra(fmt.Errorf("unexpected script reply %v", res), "action limiter check failed")
	}

	if res[0] == 1 {
		return ActionVerdict{Allowed: true}, nil
	}
	return ActionVerdict{RetryAfter: retryAfter(time.UnixMilli(res[1]), window, now)}, nil
}
