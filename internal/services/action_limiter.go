package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"movie-api/internal/config"
	"movie-api/internal/logger"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"
	"movie-api/internal/telemetry"

	"github.com/sirupsen/logrus"
)

// ThrottledError carries how long the caller should wait before retrying.
type ThrottledError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Action, e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool {
	return target == apperrors.ErrThrottled
}

type ActionLimiter interface {
	// CheckAndRecord returns nil and records the attempt when under the
	// policy, or a *ThrottledError without recording.
	CheckAndRecord(ctx context.Context, identifier string, policy config.ActionPolicy) error
}

type actionLimiter struct {
	repo    repository.ActionAttemptRepository
	timeout time.Duration
	now     func() time.Time
}

// NewActionLimiter bounds every store call by timeout. A call that runs out
// of time is an infrastructure failure, never an allow.
func NewActionLimiter(repo repository.ActionAttemptRepository, timeout time.Duration) ActionLimiter {
	return &actionLimiter{repo: repo, timeout: timeout, now: time.Now}
}

func (l *actionLimiter) CheckAndRecord(ctx context.Context, identifier string, policy config.ActionPolicy) error {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return apperrors.Invalid("identifier is required")
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	verdict, err := l.repo.CheckAndRecord(ctx, identifier, policy.Action, policy.MaxAttempts, policy.Window, l.now())
	if err != nil {
		err = failClosed(err, "action limiter unavailable")
		telemetry.ActionChecksTotal.WithLabelValues(policy.Action, "error").Inc()
		logger.LogEvent(logrus.ErrorLevel, "Action limiter unavailable", logrus.Fields{
			"action": policy.Action,
			"error":  err.Error(),
		})
		return err
	}

	if !verdict.Allowed {
		telemetry.ActionChecksTotal.WithLabelValues(policy.Action, "throttled").Inc()
		return &ThrottledError{Action: policy.Action, RetryAfter: verdict.RetryAfter}
	}

	telemetry.ActionChecksTotal.WithLabelValues(policy.Action, "allowed").Inc()
	return nil
}
