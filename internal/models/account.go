package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	StatusUnverified AccountStatus = "unverified"
	StatusVerified   AccountStatus = "verified"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Account struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string        `gorm:"type:varchar(255);not null" json:"-"`
	VerificationState AccountStatus `gorm:"type:varchar(20);not null;default:'unverified'" json:"verification_state"`
	Role              Role          `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	VerifiedAt        *time.Time    `json:"verified_at,omitempty"`
	Credentials       []Credential  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null" json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.VerificationState == "" {
		a.VerificationState = StatusUnverified
	}
	if a.Role == "" {
		a.Role = RoleUser
	}

	return nil
}

func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Account) IsVerified() bool {
	return a.VerificationState == StatusVerified
}

func (Account) TableName() string {
	return "accounts"
}
