package services

import (
	"context"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"
)

const (
	AuditActionPlanChange = "plan.change"
	AuditEntityAccount    = "account"

	maxAuditPageSize = 100
)

type AuditLogService interface {
	GetAuditLogs(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error)
	CreateAuditLog(ctx context.Context, actor, action, entityType, entityID, details string) error
}

type auditLogService struct {
	auditLogRepo repository.AuditLogRepository
	now          func() time.Time
}

func NewAuditLogService(auditLogRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditLogRepo: auditLogRepo,
		now:          time.Now,
	}
}

func (s *auditLogService) GetAuditLogs(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	if page < 1 {
		return nil, 0, apperrors.Invalid("page must be at least 1")
	}
	if pageSize < 1 || pageSize > maxAuditPageSize {
		return nil, 0, apperrors.Invalid("page_size must be between 1 and 100")
	}
	return s.auditLogRepo.ListAuditLogs(ctx, page, pageSize)
}

func (s *auditLogService) CreateAuditLog(ctx context.Context, actor, action, entityType, entityID, details string) error {
	log := &models.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  s.now().UTC(),
	}
	return s.auditLogRepo.CreateAuditLog(ctx, log)
}
