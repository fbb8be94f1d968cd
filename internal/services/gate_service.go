package services

import (
	"context"
	"errors"

	"movie-api/internal/logger"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/telemetry"

	"github.com/sirupsen/logrus"
)

type Outcome string

const (
	OutcomeAllowed            Outcome = "allowed"
	OutcomeUnauthenticated    Outcome = "unauthenticated"
	OutcomeQuotaExceeded      Outcome = "quota_exceeded"
	OutcomeServiceUnavailable Outcome = "service_unavailable"
)

// Decision is the gate's answer for one request. Snapshot is set for metered
// allows and quota denials only.
type Decision struct {
	Outcome  Outcome
	Identity *models.Identity
	Snapshot *models.UsageSnapshot
	Err      error
}

func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

type GateService interface {
	Authorize(ctx context.Context, presented, endpoint string) Decision
	AuthorizeUnmetered(ctx context.Context, presented string) Decision
}

type gateService struct {
	credentials CredentialService
	quota       QuotaService
	stats       DecisionStats
}

func NewGateService(credentials CredentialService, quota QuotaService, stats DecisionStats) GateService {
	if stats == nil {
		stats = NoopDecisionStats{}
	}
	return &gateService{credentials: credentials, quota: quota, stats: stats}
}

func (g *gateService) resolve(ctx context.Context, presented string) (*models.Identity, *Decision) {
	identity, err := g.credentials.Resolve(ctx, presented)
	if err == nil {
		return identity, nil
	}
	if errors.Is(err, apperrors.ErrInvalidCredentials) {
		return nil, &Decision{Outcome: OutcomeUnauthenticated, Err: err}
	}
	return nil, &Decision{Outcome: OutcomeServiceUnavailable, Err: err}
}

func (g *gateService) Authorize(ctx context.Context, presented, endpoint string) Decision {
	identity, denied := g.resolve(ctx, presented)
	if denied != nil {
		return g.finish(ctx, *denied, endpoint, true)
	}

	result, err := g.quota.CheckAndIncrement(ctx, identity, endpoint)
	switch {
	case err == nil && result.Allowed:
		return g.finish(ctx, Decision{Outcome: OutcomeAllowed, Identity: identity, Snapshot: &result.Snapshot}, endpoint, true)
	case err == nil:
		return g.finish(ctx, Decision{
			Outcome:  OutcomeQuotaExceeded,
			Identity: identity,
			Snapshot: &result.Snapshot,
			Err:      apperrors.ErrQuotaExceeded,
		}, endpoint, true)
	case errors.Is(err, apperrors.ErrNotFound):
		// account removed between resolution and the quota check
		return g.finish(ctx, Decision{Outcome: OutcomeUnauthenticated, Err: apperrors.ErrInvalidCredentials}, endpoint, true)
	default:
		return g.finish(ctx, Decision{Outcome: OutcomeServiceUnavailable, Identity: identity, Err: err}, endpoint, true)
	}
}

func (g *gateService) AuthorizeUnmetered(ctx context.Context, presented string) Decision {
	identity, denied := g.resolve(ctx, presented)
	if denied != nil {
		return g.finish(ctx, *denied, "", false)
	}
	return g.finish(ctx, Decision{Outcome: OutcomeAllowed, Identity: identity}, "", false)
}

// finish records metrics and logs. Neither can change the decision.
func (g *gateService) finish(ctx context.Context, d Decision, endpoint string, metered bool) Decision {
	meteredLabel := "false"
	if metered {
		meteredLabel = "true"
	}
	telemetry.GateDecisionsTotal.WithLabelValues(string(d.Outcome), meteredLabel).Inc()

	fields := logrus.Fields{
		"outcome":  d.Outcome,
		"endpoint": endpoint,
		"metered":  metered,
	}
	if d.Identity != nil {
		fields["account_id"] = d.Identity.AccountID
		fields["credential_id"] = d.Identity.CredentialID
	}
	if d.Snapshot != nil {
		fields["daily_usage"] = d.Snapshot.CurrentUsage
		fields["daily_limit"] = d.Snapshot.DailyCeiling
	}

	switch d.Outcome {
	case OutcomeServiceUnavailable:
		fields["error"] = d.Err.Error()
		logger.LogEvent(logrus.ErrorLevel, "Gate failed closed", fields)
	case OutcomeQuotaExceeded, OutcomeUnauthenticated:
		logger.LogEvent(logrus.InfoLevel, "Request denied", fields)
	default:
		logger.LogEvent(logrus.DebugLevel, "Request allowed", fields)
	}

	if metered {
		if err := g.stats.Record(ctx, d.Outcome); err != nil {
			logger.LogEvent(logrus.WarnLevel, "Failed to record decision stats", logrus.Fields{"error": err.Error()})
		}
	}
	return d
}
