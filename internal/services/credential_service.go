package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"
	"movie-api/internal/telemetry"

	"github.com/google/uuid"
)

const (
	secretBytes        = 32
	displaySecretChars = 8
)

var encodedSecretLen = base64.RawURLEncoding.EncodedLen(secretBytes)

type CredentialService interface {
	// Issue creates a credential and returns its raw secret. The secret is
	// not recoverable afterwards.
	Issue(ctx context.Context, accountID uuid.UUID) (string, *models.Credential, error)
	// Resolve returns ErrInvalidCredentials for malformed, unknown or
	// revoked secrets and for unverified accounts.
	Resolve(ctx context.Context, presented string) (*models.Identity, error)
	Revoke(ctx context.Context, credentialID uuid.UUID) error
	RevokeOwned(ctx context.Context, accountID, credentialID uuid.UUID) error
	List(ctx context.Context, accountID uuid.UUID) ([]models.Credential, error)
}

type credentialService struct {
	repo    repository.CredentialRepository
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewCredentialService bounds resolution lookups by timeout.
func NewCredentialService(repo repository.CredentialRepository, prefix string, timeout time.Duration) CredentialService {
	return &credentialService{
		repo:    repo,
		prefix:  strings.TrimSuffix(prefix, "_") + "_",
		timeout: timeout,
		now:     time.Now,
	}
}

// HashSecret is the one-way transform stored in place of the raw secret.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (s *credentialService) generateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return s.prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *credentialService) wellFormed(secret string) bool {
	body, ok := strings.CutPrefix(secret, s.prefix)
	if !ok || len(body) != encodedSecretLen {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}

func (s *credentialService) Issue(ctx context.Context, accountID uuid.UUID) (string, *models.Credential, error) {
	if accountID == uuid.Nil {
		return "", nil, apperrors.Invalid("account ID is required")
	}

	raw, err := s.generateSecret()
	if err != nil {
		return "", nil, apperrors.Infra(err, "failed to generate credential")
	}

	credential := &models.Credential{
		ID:            uuid.New(),
		AccountID:     accountID,
		SecretHash:    HashSecret(raw),
		DisplayPrefix: raw[:len(s.prefix)+displaySecretChars],
		Active:        true,
		CreatedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, credential); err != nil {
		return "", nil, err
	}

	telemetry.CredentialsIssuedTotal.Inc()
	return raw, credential, nil
}

func (s *credentialService) Resolve(ctx context.Context, presented string) (*models.Identity, error) {
	presented = strings.TrimSpace(presented)
	if !s.wellFormed(presented) {
		return nil, apperrors.ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.repo.FindIdentityByHash(ctx, HashSecret(presented))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, failClosed(err, "credential lookup failed")
	}
	return identity, nil
}

func (s *credentialService) Revoke(ctx context.Context, credentialID uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, credentialID, s.now()); err != nil {
		return err
	}
	telemetry.CredentialsRevokedTotal.Inc()
	return nil
}

// RevokeOwned revokes only if the credential belongs to accountID. Foreign
// credentials are reported as not found.
func (s *credentialService) RevokeOwned(ctx context.Context, accountID, credentialID uuid.UUID) error {
	credential, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return err
	}
	if credential.AccountID != accountID {
		return apperrors.ErrNotFound
	}
	return s.Revoke(ctx, credentialID)
}

func (s *credentialService) List(ctx context.Context, accountID uuid.UUID) ([]models.Credential, error) {
	return s.repo.ListByAccount(ctx, accountID)
}
