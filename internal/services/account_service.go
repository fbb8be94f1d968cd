package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"movie-api/internal/config"
	"movie-api/internal/logger"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type signupInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

// VerifiedAccount is returned once, when verification issues the first key.
type VerifiedAccount struct {
	Account    *models.Account
	Credential *models.Credential
	RawSecret  string
}

type AccountService interface {
	Signup(ctx context.Context, email, password string) (*models.Account, error)
	Verify(ctx context.Context, email, code string) (*VerifiedAccount, error)
	ResendVerification(ctx context.Context, email string) error
	Delete(ctx context.Context, accountID uuid.UUID) error
}

type accountService struct {
	accounts    repository.AccountRepository
	codes       repository.VerificationCodeRepository
	credentials CredentialService
	limiter     ActionLimiter
	mailer      Mailer
	actions     *config.ActionConfig
	mail        *config.MailConfig
	validate    *validator.Validate
	now         func() time.Time
}

func NewAccountService(
	accounts repository.AccountRepository,
	codes repository.VerificationCodeRepository,
	credentials CredentialService,
	limiter ActionLimiter,
	mailer Mailer,
	actions *config.ActionConfig,
	mailCfg *config.MailConfig,
) AccountService {
	return &accountService{
		accounts:    accounts,
		codes:       codes,
		credentials: credentials,
		limiter:     limiter,
		mailer:      mailer,
		actions:     actions,
		mail:        mailCfg,
		validate:    validator.New(),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkEmailDomain rejects disposable providers and, when an allow list is
// configured, anything outside it.
func (s *accountService) checkEmailDomain(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return apperrors.Invalid("invalid email format")
	}
	domain := email[at+1:]

	for _, d := range s.mail.DisposableDomains {
		if domain == d {
			return apperrors.Invalid("disposable email addresses are not allowed")
		}
	}
	if len(s.mail.AllowedDomains) == 0 {
		return nil
	}
	for _, d := range s.mail.AllowedDomains {
		if domain == d {
			return nil
		}
	}
	return apperrors.Invalid(fmt.Sprintf("email domain %s is not supported", domain))
}

func (s *accountService) Signup(ctx context.Context, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	if err := s.validate.Struct(signupInput{Email: email, Password: password}); err != nil {
		return nil, apperrors.Invalid(validationMessage(err))
	}
	if err := s.checkEmailDomain(email); err != nil {
		return nil, err
	}

	if err := s.limiter.CheckAndRecord(ctx, email, s.actions.Signup); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil && account.IsVerified():
		return nil, apperrors.Wrap(apperrors.ErrAlreadyExists, "account already exists and is verified")
	case err == nil:
		if err := s.accounts.UpdatePassword(ctx, account.ID, string(hashed)); err != nil {
			return nil, err
		}
	case errors.Is(err, apperrors.ErrNotFound):
		account = &models.Account{
			ID:                uuid.New(),
			Email:             email,
			PasswordHash:      string(hashed),
			VerificationState: models.StatusUnverified,
			Role:              models.RoleUser,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.sendCode(ctx, account); err != nil {
		return nil, err
	}

	logger.LogEvent(logrus.InfoLevel, "Account signup", logrus.Fields{"account_id": account.ID})
	return account, nil
}

func (s *accountService) sendCode(ctx context.Context, account *models.Account) error {
	code, err := generateVerificationCode()
	if err != nil {
		return apperrors.Infra(err, "failed to generate verification code")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.codes.Replace(ctx, &models.VerificationCode{
		AccountID: account.ID,
		CodeHash:  string(hashed),
		ExpiresAt: now.Add(s.mail.CodeTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	return s.mailer.SendVerificationCode(ctx, account.Email, code)
}

func (s *accountService) Verify(ctx context.Context, email, code string) (*VerifiedAccount, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, apperrors.Invalid("email and code are required")
	}

	if err := s.limiter.CheckAndRecord(ctx, email, s.actions.Verify); err != nil {
		return nil, err
	}

	// Unknown, already verified, missing, expired and wrong codes all look
	// the same to the caller.
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidCode()
		}
		return nil, err
	}
	if account.IsVerified() {
		return nil, errInvalidCode()
	}

	pending, err := s.codes.Get(ctx, account.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidCode()
		}
		return nil, err
	}
	if pending.Expired(s.now()) {
		return nil, errInvalidCode()
	}
	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(code)) != nil {
		return nil, errInvalidCode()
	}

	// The key is issued before the state flips so a verified account always
	// has one. Resolution ignores it until the account is verified.
	raw, credential, err := s.credentials.Issue(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	verifiedAt := s.now()
	if err := s.accounts.MarkVerified(ctx, account.ID, verifiedAt); err != nil {
		if revokeErr := s.credentials.Revoke(ctx, credential.ID); revokeErr != nil {
			logger.LogEvent(logrus.ErrorLevel, "Failed to revoke orphaned credential", logrus.Fields{
				"credential_id": credential.ID,
				"error":         revokeErr.Error(),
			})
		}
		return nil, err
	}
	account.VerificationState = models.StatusVerified
	account.VerifiedAt = &verifiedAt

	if err := s.codes.Delete(ctx, account.ID); err != nil {
		logger.LogEvent(logrus.WarnLevel, "Failed to delete verification code", logrus.Fields{
			"account_id": account.ID,
			"error":      err.Error(),
		})
	}

	logger.LogEvent(logrus.InfoLevel, "Account verified", logrus.Fields{"account_id": account.ID})
	return &VerifiedAccount{Account: account, Credential: credential, RawSecret: raw}, nil
}

func (s *accountService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperrors.Invalid("invalid email format")
	}

	if err := s.limiter.CheckAndRecord(ctx, email, s.actions.Resend); err != nil {
		return err
	}

	// Unknown and verified accounts are acknowledged without sending.
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if account.IsVerified() {
		return nil
	}
	return s.sendCode(ctx, account)
}

func (s *accountService) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return err
	}
	logger.LogEvent(logrus.InfoLevel, "Account deleted", logrus.Fields{"account_id": accountID})
	return nil
}

func errInvalidCode() error {
	return apperrors.Invalid("invalid or expired verification code")
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return strings.ToLower(fe.Field()) + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param())
	}
	return "invalid " + strings.ToLower(fe.Field())
}
