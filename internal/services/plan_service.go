package services

import (
	"context"
	"fmt"
	"time"

	"movie-api/internal/config"
	"movie-api/internal/logger"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"
	"movie-api/internal/telemetry"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PlanService interface {
	GetCeiling(ctx context.Context, accountID uuid.UUID) (*models.PlanAssignment, error)
	// Upgrade replaces the account's plan. Usage already recorded today is
	// kept; only later checks see the new ceiling.
	Upgrade(ctx context.Context, accountID uuid.UUID, tier models.PlanTier, dailyCeiling int, source string) (*models.PlanAssignment, error)
	Downgrade(ctx context.Context, accountID uuid.UUID, source string) (*models.PlanAssignment, error)
	DefaultPlan() models.PlanAssignment
	CeilingFor(tier models.PlanTier) int
}

type planService struct {
	repo  repository.PlanRepository
	cfg   *config.QuotaConfig
	audit AuditLogService
}

type PlanServiceOption func(*planService)

// WithAuditLog records every plan change in the audit trail.
func WithAuditLog(audit AuditLogService) PlanServiceOption {
	return func(s *planService) { s.audit = audit }
}

func NewPlanService(repo repository.PlanRepository, cfg *config.QuotaConfig, opts ...PlanServiceOption) PlanService {
	s := &planService{repo: repo, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *planService) DefaultPlan() models.PlanAssignment {
	return models.PlanAssignment{Tier: models.TierStandard, DailyCeiling: s.cfg.DefaultCeiling}
}

func (s *planService) CeilingFor(tier models.PlanTier) int {
	if tier == models.TierElevated {
		return s.cfg.ElevatedCeiling
	}
	return s.cfg.DefaultCeiling
}

func (s *planService) GetCeiling(ctx context.Context, accountID uuid.UUID) (*models.PlanAssignment, error) {
	return s.repo.GetOrMaterialize(ctx, accountID, s.DefaultPlan())
}

func (s *planService) Upgrade(ctx context.Context, accountID uuid.UUID, tier models.PlanTier, dailyCeiling int, source string) (*models.PlanAssignment, error) {
	if accountID == uuid.Nil {
		return nil, apperrors.Invalid("account ID is required")
	}
	if !tier.Valid() {
		return nil, apperrors.Invalid("tier must be standard or elevated")
	}
	if dailyCeiling <= 0 {
		return nil, apperrors.Invalid("daily ceiling must be positive")
	}

	plan := &models.PlanAssignment{
		AccountID:    accountID,
		Tier:         tier,
		DailyCeiling: dailyCeiling,
		UpdatedAt:    time.Now(),
	}
	if err := s.repo.Upsert(ctx, plan); err != nil {
		return nil, err
	}

	telemetry.PlanChangesTotal.WithLabelValues(string(tier), source).Inc()
	logger.LogEvent(logrus.InfoLevel, "Plan changed", logrus.Fields{
		"account_id":    accountID,
		"tier":          tier,
		"daily_ceiling": dailyCeiling,
		"source":        source,
	})

	if s.audit != nil {
		details := fmt.Sprintf("tier=%s daily_ceiling=%d", tier, dailyCeiling)
		if err := s.audit.CreateAuditLog(ctx, source, AuditActionPlanChange, AuditEntityAccount, accountID.String(), details); err != nil {
			logger.LogEvent(logrus.ErrorLevel, "Failed to write plan audit log", logrus.Fields{
				"account_id": accountID,
				"error":      err.Error(),
			})
		}
	}
	return plan, nil
}

func (s *planService) Downgrade(ctx context.Context, accountID uuid.UUID, source string) (*models.PlanAssignment, error) {
	def := s.DefaultPlan()
	return s.Upgrade(ctx, accountID, def.Tier, def.DailyCeiling, source)
}
