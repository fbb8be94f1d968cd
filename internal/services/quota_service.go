package services

import (
	"context"
	"errors"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"
	"movie-api/internal/telemetry"

	"github.com/google/uuid"
)

const historyDays = 30

type QuotaResult struct {
	Allowed  bool
	Snapshot models.UsageSnapshot
}

type UsageHistory struct {
	Days         []models.DailyUsage  `json:"days"`
	TotalLogged  int64                `json:"total_requests"`
	CurrentUsage models.UsageSnapshot `json:"today"`
}

type QuotaService interface {
	// CheckAndIncrement either counts one request against the account or
	// denies it. Any store failure is returned as ErrInfrastructure and is
	// never an allow.
	CheckAndIncrement(ctx context.Context, identity *models.Identity, endpoint string) (*QuotaResult, error)
	Snapshot(ctx context.Context, accountID uuid.UUID) (*models.UsageSnapshot, error)
	History(ctx context.Context, accountID uuid.UUID) (*UsageHistory, error)
}

type quotaService struct {
	repo    repository.QuotaRepository
	plans   PlanService
	timeout time.Duration
	now     func() time.Time
}

func NewQuotaService(repo repository.QuotaRepository, plans PlanService, timeout time.Duration) QuotaService {
	return &quotaService{
		repo:    repo,
		plans:   plans,
		timeout: timeout,
		now:     time.Now,
	}
}

// failClosed keeps ErrNotFound (the account disappeared) and turns every
// other failure into an infrastructure error.
func failClosed(err error, message string) error {
	if errors.Is(err, apperrors.ErrInfrastructure) || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return apperrors.Infra(err, message)
}

func (s *quotaService) CheckAndIncrement(ctx context.Context, identity *models.Identity, endpoint string) (*QuotaResult, error) {
	if identity == nil || identity.AccountID == uuid.Nil || identity.CredentialID == uuid.Nil {
		return nil, apperrors.Invalid("identity is required")
	}
	if endpoint == "" {
		return nil, apperrors.Invalid("endpoint label is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	at := s.now()
	start := time.Now()
	outcome, err := s.repo.CheckAndIncrement(ctx, repository.UsageCharge{
		AccountID:    identity.AccountID,
		CredentialID: identity.CredentialID,
		Endpoint:     endpoint,
		At:           at,
		DefaultPlan:  s.plans.DefaultPlan(),
	})
	telemetry.LedgerCheckDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, failClosed(err, "quota check failed")
	}

	return &QuotaResult{
		Allowed:  outcome.Allowed,
		Snapshot: models.NewUsageSnapshot(outcome.Tier, outcome.Ceiling, outcome.Usage, at),
	}, nil
}

func (s *quotaService) Snapshot(ctx context.Context, accountID uuid.UUID) (*models.UsageSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	plan, err := s.plans.GetCeiling(ctx, accountID)
	if err != nil {
		return nil, failClosed(err, "failed to read plan")
	}

	at := s.now()
	usage, err := s.repo.CurrentUsage(ctx, accountID, at)
	if err != nil {
		return nil, failClosed(err, "failed to read usage")
	}

	snapshot := models.NewUsageSnapshot(plan.Tier, plan.DailyCeiling, usage, at)
	return &snapshot, nil
}

func (s *quotaService) History(ctx context.Context, accountID uuid.UUID) (*UsageHistory, error) {
	snapshot, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	since := s.now().UTC().AddDate(0, 0, -(historyDays - 1))
	days, err := s.repo.DailyHistory(ctx, accountID, since)
	if err != nil {
		return nil, failClosed(err, "failed to read usage history")
	}
	total, err := s.repo.TotalLogged(ctx, accountID)
	if err != nil {
		return nil, failClosed(err, "failed to count usage")
	}

	if days == nil {
		days = []models.DailyUsage{}
	}
	return &UsageHistory{Days: days, TotalLogged: total, CurrentUsage: *snapshot}, nil
}
