package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"movie-api/internal/config"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newLimiterFixture() (*memStore, *actionLimiter, *stepClock) {
	store := newMemStore()
	clock := &stepClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
	l := NewActionLimiter(memAttempts{store}, time.Second).(*actionLimiter)
	l.now = clock.now
	return store, l, clock
}

func TestLimiterFourthCallWithinWindowIsThrottled(t *testing.T) {
	_, l, clock := newLimiterFixture()
	policy := config.ActionPolicy{Action: "resend_verification", MaxAttempts: 3, Window: 60 * time.Second}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.CheckAndRecord(ctx, "reader@gmail.com", policy))
		clock.advance(3 * time.Second)
	}

	err := l.CheckAndRecord(ctx, "reader@gmail.com", policy)
	var throttled *ThrottledError
	require.True(t, errors.As(err, &throttled))
	assert.ErrorIs(t, err, apperrors.ErrThrottled)
	assert.Equal(t, 51*time.Second, throttled.RetryAfter)

	clock.advance(52 * time.Second)
	assert.NoError(t, l.CheckAndRecord(ctx, "reader@gmail.com", policy))
}

func TestLimiterKeysByIdentifierAndAction(t *testing.T) {
	_, l, _ := newLimiterFixture()
	signup := config.ActionPolicy{Action: "signup", MaxAttempts: 1, Window: time.Hour}
	resend := config.ActionPolicy{Action: "resend_verification", MaxAttempts: 1, Window: time.Minute}
	ctx := context.Background()

	require.NoError(t, l.CheckAndRecord(ctx, "a@gmail.com", signup))
	require.NoError(t, l.CheckAndRecord(ctx, "a@gmail.com", resend))
	require.NoError(t, l.CheckAndRecord(ctx, "b@gmail.com", signup))
	assert.ErrorIs(t, l.CheckAndRecord(ctx, " A@gmail.com ", signup), apperrors.ErrThrottled)
}

func TestLimiterRejectsInvalidInputBeforeStore(t *testing.T) {
	store, l, _ := newLimiterFixture()
	store.fail = apperrors.Infra(errors.New("down"), "unreachable")
	ctx := context.Background()

	assert.ErrorIs(t, l.CheckAndRecord(ctx, "", config.ActionPolicy{Action: "signup", MaxAttempts: 3, Window: time.Hour}), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, l.CheckAndRecord(ctx, "x", config.ActionPolicy{Action: "signup", MaxAttempts: 0, Window: time.Hour}), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, l.CheckAndRecord(ctx, "x", config.ActionPolicy{Action: "signup", MaxAttempts: 3}), apperrors.ErrInvalidInput)
}

func TestLimiterStoreFailure(t *testing.T) {
	store, l, _ := newLimiterFixture()
	store.fail = apperrors.Infra(errors.New("down"), "unreachable")

	err := l.CheckAndRecord(context.Background(), "x", config.ActionPolicy{Action: "signup", MaxAttempts: 3, Window: time.Hour})
	assert.ErrorIs(t, err, apperrors.ErrInfrastructure)
}

func TestLimiterConcurrentCallersSameIdentifier(t *testing.T) {
	_, l, _ := newLimiterFixture()
	policy := config.ActionPolicy{Action: "signup", MaxAttempts: 3, Window: time.Hour}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckAndRecord(context.Background(), "race@gmail.com", policy) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, allowed)
}

type hangingAttempts struct {
	repository.ActionAttemptRepository
}

func (hangingAttempts) CheckAndRecord(ctx context.Context, _, _ string, _ int, _ time.Duration, _ time.Time) (repository.ActionVerdict, error) {
	<-ctx.Done()
	return repository.ActionVerdict{}, ctx.Err()
}

func TestLimiterHungStoreFailsClosed(t *testing.T) {
	l := NewActionLimiter(hangingAttempts{}, 20*time.Millisecond)

	start := time.Now()
	err := l.CheckAndRecord(context.Background(), "x@gmail.com", config.ActionPolicy{Action: "signup", MaxAttempts: 3, Window: time.Hour})
	assert.ErrorIs(t, err, apperrors.ErrInfrastructure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperrors.ErrThrottled)
	assert.Less(t, time.Since(start), time.Second)
}
