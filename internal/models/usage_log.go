package models

import (
	"time"

	"github.com/google/uuid"
)

type UsageLogEntry struct {
	ID           uint      `gorm:"primarykey"`
	CredentialID uuid.UUID `gorm:"type:uuid;not null;index"`
	Endpoint     string    `gorm:"type:varchar(255);not null"`
	ResultCode   int       `gorm:"not null"`
	Timestamp    time.Time `gorm:"not null;index"`
}

func (UsageLogEntry) TableName() string {
	return "usage_logs"
}
