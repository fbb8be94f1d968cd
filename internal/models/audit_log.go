package models

import "time"

// AuditLog records an operator or billing change to an account's plan.
type AuditLog struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Actor      string    `gorm:"type:varchar(255);not null" json:"actor"`
	Action     string    `gorm:"type:varchar(64);not null" json:"action"`
	EntityType string    `gorm:"type:varchar(64);not null" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(64);not null" json:"entity_id"`
	Details    string    `gorm:"type:text;not null" json:"details"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
