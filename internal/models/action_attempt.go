package models

import "time"

type ActionAttempt struct {
	ID          uint      `gorm:"primarykey"`
	Identifier  string    `gorm:"type:varchar(255);not null;index:idx_action_attempts_key,priority:1"`
	Action      string    `gorm:"type:varchar(64);not null;index:idx_action_attempts_key,priority:2"`
	AttemptedAt time.Time `gorm:"not null;index:idx_action_attempts_key,priority:3"`
}

func (ActionAttempt) TableName() string {
	return "action_attempts"
}
