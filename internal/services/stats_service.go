package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// DecisionStats keeps per-day counts of metered gate outcomes. It is an
// observability aid only; the ledger stays authoritative.
type DecisionStats interface {
	Record(ctx context.Context, outcome Outcome) error
	Totals(ctx context.Context, day time.Time) (map[string]int64, error)
}

type NoopDecisionStats struct{}

func (NoopDecisionStats) Record(context.Context, Outcome) error { return nil }

func (NoopDecisionStats) Totals(context.Context, time.Time) (map[string]int64, error) {
	return nil, apperrors.ErrNotConfigured
}

type RedisStatsOption func(*RedisDecisionStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisDecisionStats) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisDecisionStats) { s.ttl = d }
}

type RedisDecisionStats struct {
	rdb    redis.Cmdable
	prefix string
	// ttl applies to each daily hash; old days expire on their own
	ttl time.Duration
	now func() time.Time
}

func NewRedisDecisionStats(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisDecisionStats {
	s := &RedisDecisionStats{
		rdb:    rdb,
		prefix: "gate:stats",
		ttl:    72 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisDecisionStats) dayKey(day time.Time) string {
	return s.prefix + ":" + models.UsageDay(day).Format("2006-01-02")
}

func (s *RedisDecisionStats) Record(ctx context.Context, outcome Outcome) error {
	key := s.dayKey(s.now())

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, string(outcome), 1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Infra(err, "failed to record decision stats")
	}
	return nil
}

func (s *RedisDecisionStats) Totals(ctx context.Context, day time.Time) (map[string]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, s.dayKey(day)).Result()
	if err != nil {
		return nil, apperrors.Infra(err, "failed to read decision stats")
	}

	totals := map[string]int64{
		string(OutcomeAllowed):            0,
		string(OutcomeUnauthenticated):    0,
		string(OutcomeQuotaExceeded):      0,
		string(OutcomeServiceUnavailable): 0,
	}
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		totals[field] = n
	}
	return totals, nil
}
