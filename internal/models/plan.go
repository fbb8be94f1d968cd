package models

import (
	"time"

	"github.com/google/uuid"
)

type PlanTier string

const (
	TierStandard PlanTier = "standard"
	TierElevated PlanTier = "elevated"
)

func (t PlanTier) Valid() bool {
	return t == TierStandard || t == TierElevated
}

type PlanAssignment struct {
	AccountID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"account_id"`
	Tier         PlanTier  `gorm:"type:varchar(20);not null" json:"tier"`
	DailyCeiling int       `gorm:"not null;check:daily_ceiling > 0" json:"daily_ceiling"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (PlanAssignment) TableName() string {
	return "plan_assignments"
}
