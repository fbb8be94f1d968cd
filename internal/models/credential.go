package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credential is a hashed bearer token. The raw secret is never stored.
type Credential struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"account_id"`
	SecretHash    string     `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	DisplayPrefix string     `gorm:"type:varchar(16);not null" json:"display_prefix"`
	Active        bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

func (c *Credential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

func (Credential) TableName() string {
	return "credentials"
}

// Identity is what a resolved credential proves about the caller.
type Identity struct {
	AccountID    uuid.UUID `json:"account_id"`
	CredentialID uuid.UUID `json:"credential_id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
}
