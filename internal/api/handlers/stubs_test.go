package handlers

import (
	"context"
	"time"

	"movie-api/internal/models"
	"movie-api/internal/services"

	"github.com/google/uuid"
)

type stubAccounts struct {
	signup   func(email, password string) (*models.Account, error)
	verify   func(email, code string) (*services.VerifiedAccount, error)
	resend   func(email string) error
	deleteFn func(id uuid.UUID) error
}

func (s *stubAccounts) Signup(_ context.Context, email, password string) (*models.Account, error) {
	return s.signup(email, password)
}

func (s *stubAccounts) Verify(_ context.Context, email, code string) (*services.VerifiedAccount, error) {
	return s.verify(email, code)
}

func (s *stubAccounts) ResendVerification(_ context.Context, email string) error {
	return s.resend(email)
}

func (s *stubAccounts) Delete(_ context.Context, id uuid.UUID) error {
	return s.deleteFn(id)
}

type stubCredentials struct {
	services.CredentialService
	list       []models.Credential
	issued     *models.Credential
	revokeErr  error
	revokedFor uuid.UUID
	revokedID  uuid.UUID
}

func (s *stubCredentials) Issue(_ context.Context, accountID uuid.UUID) (string, *models.Credential, error) {
	s.issued = &models.Credential{ID: uuid.New(), AccountID: accountID, DisplayPrefix: "mk_abcdefgh", Active: true, CreatedAt: time.Now()}
	return "mk_raw-secret", s.issued, nil
}

func (s *stubCredentials) List(context.Context, uuid.UUID) ([]models.Credential, error) {
	return s.list, nil
}

func (s *stubCredentials) RevokeOwned(_ context.Context, accountID, credentialID uuid.UUID) error {
	s.revokedFor, s.revokedID = accountID, credentialID
	return s.revokeErr
}

type stubQuota struct {
	services.QuotaService
	snapshot *models.UsageSnapshot
	history  *services.UsageHistory
	err      error
}

func (s *stubQuota) Snapshot(context.Context, uuid.UUID) (*models.UsageSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubQuota) History(context.Context, uuid.UUID) (*services.UsageHistory, error) {
	return s.history, s.err
}

type planCall struct {
	accountID uuid.UUID
	tier      models.PlanTier
	ceiling   int
	source    string
	downgrade bool
}

type stubPlans struct {
	calls []planCall
	err   error
}

func (s *stubPlans) GetCeiling(_ context.Context, accountID uuid.UUID) (*models.PlanAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PlanAssignment{AccountID: accountID, Tier: models.TierStandard, DailyCeiling: 100}, nil
}

func (s *stubPlans) Upgrade(_ context.Context, accountID uuid.UUID, tier models.PlanTier, ceiling int, source string) (*models.PlanAssignment, error) {
	s.calls = append(s.calls, planCall{accountID: accountID, tier: tier, ceiling: ceiling, source: source})
	if s.err != nil {
		return nil, s.err
	}
	return &models.PlanAssignment{AccountID: accountID, Tier: tier, DailyCeiling: ceiling}, nil
}

func (s *stubPlans) Downgrade(_ context.Context, accountID uuid.UUID, source string) (*models.PlanAssignment, error) {
	s.calls = append(s.calls, planCall{accountID: accountID, tier: models.TierStandard, ceiling: 100, source: source, downgrade: true})
	if s.err != nil {
		return nil, s.err
	}
	return &models.PlanAssignment{AccountID: accountID, Tier: models.TierStandard, DailyCeiling: 100}, nil
}

func (s *stubPlans) DefaultPlan() models.PlanAssignment {
	return models.PlanAssignment{Tier: models.TierStandard, DailyCeiling: 100}
}

func (s *stubPlans) CeilingFor(tier models.PlanTier) int {
	if tier == models.TierElevated {
		return 500
	}
	return 100
}

type stubStats struct {
	totals map[string]int64
	day    time.Time
	err    error
}

func (s *stubStats) Record(context.Context, services.Outcome) error { return nil }

func (s *stubStats) Totals(_ context.Context, day time.Time) (map[string]int64, error) {
	s.day = day
	return s.totals, s.err
}

type stubAudit struct {
	logs          []models.AuditLog
	page, perPage int
	err           error
}

func (s *stubAudit) GetAuditLogs(_ context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	s.page, s.perPage = page, pageSize
	return s.logs, int64(len(s.logs)), s.err
}

func (s *stubAudit) CreateAuditLog(context.Context, string, string, string, string, string) error {
	return nil
}
