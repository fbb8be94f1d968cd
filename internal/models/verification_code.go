package models

import (
	"time"

	"github.com/google/uuid"
)

type VerificationCode struct {
	AccountID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CodeHash  string    `gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

func (v *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
