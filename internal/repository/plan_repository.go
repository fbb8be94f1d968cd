package repository

import (
	"context"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanRepository interface {
	// GetOrMaterialize returns the account's plan, inserting def first when
	// the account has none. Concurrent callers converge on the same row.
	GetOrMaterialize(ctx context.Context, accountID uuid.UUID, def models.PlanAssignment) (*models.PlanAssignment, error)
	Upsert(ctx context.Context, plan *models.PlanAssignment) error
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

const materializePlanSQL = `
	INSERT INTO plan_assignments (account_id, tier, daily_ceiling, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (account_id) DO NOTHING`

func (r *planRepository) GetOrMaterialize(ctx context.Context, accountID uuid.UUID, def models.PlanAssignment) (*models.PlanAssignment, error) {
	db := r.db.WithContext(ctx)
	if err := db.Exec(materializePlanSQL, accountID, def.Tier, def.DailyCeiling, time.Now()).Error; err != nil {
		return nil, storeError(err, "failed to materialize plan")
	}

	var plan models.PlanAssignment
	result := db.Raw(`SELECT account_id, tier, daily_ceiling, updated_at FROM plan_assignments WHERE account_id = ?`, accountID).Scan(&plan)
	if result.Error != nil {
		return nil, storeError(result.Error, "failed to get plan")
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &plan, nil
}

func (r *planRepository) Upsert(ctx context.Context, plan *models.PlanAssignment) error {
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO plan_assignments (account_id, tier, daily_ceiling, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE
		SET tier = EXCLUDED.tier, daily_ceiling = EXCLUDED.daily_ceiling, updated_at = EXCLUDED.updated_at`,
		plan.AccountID, plan.Tier, plan.DailyCeiling, plan.UpdatedAt).Error
	if err != nil {
		return storeError(err, "failed to save plan")
	}
	return nil
}
