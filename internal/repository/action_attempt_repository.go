package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ActionVerdict is the outcome of one throttled action check.
type ActionVerdict struct {
	Allowed    bool
	RetryAfter time.Duration
}

// ActionAttemptRepository records sensitive actions in a sliding window.
// A throttled check records nothing.
type ActionAttemptRepository interface {
	CheckAndRecord(ctx context.Context, identifier, action string, maxAttempts int, window time.Duration, now time.Time) (ActionVerdict, error)
}

type actionAttemptRepository struct {
	db *gorm.DB
}

func NewActionAttemptRepository(db *gorm.DB) ActionAttemptRepository {
	return &actionAttemptRepository{db: db}
}

type windowState struct {
	Count  int64
	Oldest *time.Time
}

// CheckAndRecord serializes callers on the same identifier and action with a
// transaction-scoped advisory lock, so the count and the insert cannot race.
func (r *actionAttemptRepository) CheckAndRecord(ctx context.Context, identifier, action string, maxAttempts int, window time.Duration, now time.Time) (ActionVerdict, error) {
	cutoff := now.Add(-window)
	var verdict ActionVerdict

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, identifier+":"+action).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM action_attempts WHERE identifier = ? AND action = ? AND attempted_at < ?`,
			identifier, action, cutoff).Error; err != nil {
			return err
		}

		var state windowState
		if err := tx.Raw(`
			SELECT COUNT(*) AS count, MIN(attempted_at) AS oldest
			FROM action_attempts
			WHERE identifier = ? AND action = ? AND attempted_at >= ?`,
			identifier, action, cutoff).Scan(&state).Error; err != nil {
			return err
		}

		if state.Count >= int64(maxAttempts) {
			oldest := now
			if state.Oldest != nil {
				oldest = *state.Oldest
			}
			verdict.RetryAfter = retryAfter(oldest, window, now)
			return nil
		}

		if err := tx.Exec(`INSERT INTO action_attempts (identifier, action, attempted_at) VALUES (?, ?, ?)`,
			identifier, action, now).Error; err != nil {
			return err
		}
		verdict.Allowed = true
		return nil
	})
	if err != nil {
		return ActionVerdict{}, storeError(err, "action limiter check failed")
	}
	return verdict, nil
}

// retryAfter is the time until the oldest counted attempt leaves the window,
// rounded up to whole seconds and never less than one.
func retryAfter(oldest time.Time, window time.Duration, now time.Time) time.Duration {
	wait := oldest.Add(window).Sub(now)
	if rem := wait % time.Second; rem > 0 {
		wait += time.Second - rem
	}
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}
