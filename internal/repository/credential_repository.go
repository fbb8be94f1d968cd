package repository

import (
	"context"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *models.Credential) error
	// FindIdentityByHash returns ErrNotFound unless the credential is active
	// and its account is verified.
	FindIdentityByHash(ctx context.Context, secretHash string) (*models.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Credential, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Credential, error)
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, credential *models.Credential) error {
	if err := r.db.WithContext(ctx).Create(credential).Error; err != nil {
		return storeError(err, "failed to create credential")
	}
	return nil
}

func (r *credentialRepository) FindIdentityByHash(ctx context.Context, secretHash string) (*models.Identity, error) {
	var identity models.Identity
	result := r.db.WithContext(ctx).Raw(`
		SELECT c.id AS credential_id, c.account_id, a.email, a.role
		FROM credentials c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.secret_hash = ? AND c.active AND a.verification_state = ?
		LIMIT 1`, secretHash, models.StatusVerified).Scan(&identity)
	if result.Error != nil {
		return nil, storeError(result.Error, "failed to resolve credential")
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &identity, nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).First(&credential, "id = ?", id).Error; err != nil {
		return nil, storeError(err, "failed to get credential")
	}
	return &credential, nil
}

func (r *credentialRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Credential, error) {
	var credentials []models.Credential
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&credentials).Error
	if err != nil {
		return nil, storeError(err, "failed to list credentials")
	}
	return credentials, nil
}

// Deactivate is idempotent: revoking an already inactive credential succeeds.
func (r *credentialRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Credential{}).
		Where("id = ? AND active", id).
		Updates(map[string]interface{}{
			"active":     false,
			"revoked_at": at,
		})
	if result.Error != nil {
		return storeError(result.Error, "failed to revoke credential")
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
