package repository

import (
	"context"

	"movie-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationCodeRepository interface {
	// Replace stores code as the account's only pending code.
	Replace(ctx context.Context, code *models.VerificationCode) error
	Get(ctx context.Context, accountID uuid.UUID) (*models.VerificationCode, error)
	Delete(ctx context.Context, accountID uuid.UUID) error
}

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Replace(ctx context.Context, code *models.VerificationCode) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "created_at"}),
	}).Create(code).Error
	if err != nil {
		return storeError(err, "failed to store verification code")
	}
	return nil
}

func (r *verificationCodeRepository) Get(ctx context.Context, accountID uuid.UUID) (*models.VerificationCode, error) {
	var code models.VerificationCode
	if err := r.db.WithContext(ctx).First(&code, "account_id = ?", accountID).Error; err != nil {
		return nil, storeError(err, "failed to get verification code")
	}
	return &code, nil
}

func (r *verificationCodeRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.VerificationCode{}, "account_id = ?", accountID).Error; err != nil {
		return storeError(err, "failed to delete verification code")
	}
	return nil
}
