package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/repository"

	"github.com/google/uuid"
)

// memStore models the database: every method runs under one mutex, which
// stands in for the row lock the ledger takes on the plan.
type memStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]*models.Account
	credentials map[uuid.UUID]*models.Credential
	plans       map[uuid.UUID]models.PlanAssignment
	counters    map[uuid.UUID]map[time.Time]int
	logs        int64
	attempts    map[string][]time.Time
	codes       map[uuid.UUID]*models.VerificationCode
	fail        error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    map[uuid.UUID]*models.Account{},
		credentials: map[uuid.UUID]*models.Credential{},
		plans:       map[uuid.UUID]models.PlanAssignment{},
		counters:    map[uuid.UUID]map[time.Time]int{},
		attempts:    map[string][]time.Time{},
		codes:       map[uuid.UUID]*models.VerificationCode{},
	}
}

func (m *memStore) addAccount(verified bool) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &models.Account{ID: uuid.New(), Email: uuid.NewString() + "@gmail.com", Role: models.RoleUser, VerificationState: models.StatusUnverified}
	if verified {
		a.VerificationState = models.StatusVerified
	}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) usageLocked(accountID uuid.UUID, day time.Time) int {
	total := 0
	for id, c := range m.credentials {
		if c.AccountID == accountID {
			total += m.counters[id][day]
		}
	}
	return total
}

type memAccounts struct{ *memStore }

func (r memAccounts) Create(_ context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return apperrors.ErrAlreadyExists
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memAccounts) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r memAccounts) MarkVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if a.IsVerified() {
		return apperrors.ErrAlreadyVerified
	}
	a.VerificationState = models.StatusVerified
	a.VerifiedAt = &at
	return nil
}

func (r memAccounts) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.accounts, id)
	delete(r.plans, id)
	delete(r.codes, id)
	for cid, c := range r.credentials {
		if c.AccountID == id {
			delete(r.credentials, cid)
			delete(r.counters, cid)
		}
	}
	return nil
}

type memCredentials struct{ *memStore }

func (r memCredentials) Create(_ context.Context, c *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.accounts[c.AccountID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *c
	r.credentials[c.ID] = &cp
	return nil
}

func (r memCredentials) FindIdentityByHash(_ context.Context, hash string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	for _, c := range r.credentials {
		if c.SecretHash != hash || !c.Active {
			continue
		}
		a, ok := r.accounts[c.AccountID]
		if !ok || !a.IsVerified() {
			continue
		}
		return &models.Identity{AccountID: a.ID, CredentialID: c.ID, Email: a.Email, Role: a.Role}, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r memCredentials) GetByID(_ context.Context, id uuid.UUID) (*models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.credentials[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCredentials) ListByAccount(_ context.Context, accountID uuid.UUID) ([]models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Credential
	for _, c := range r.credentials {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memCredentials) Deactivate(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.credentials[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if c.Active {
		c.Active = false
		c.RevokedAt = &at
	}
	return nil
}

type memPlans struct{ *memStore }

func (r memPlans) GetOrMaterialize(_ context.Context, accountID uuid.UUID, def models.PlanAssignment) (*models.PlanAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	plan, ok := r.plans[accountID]
	if !ok {
		plan = def
		plan.AccountID = accountID
		r.plans[accountID] = plan
	}
	return &plan, nil
}

func (r memPlans) Upsert(_ context.Context, plan *models.PlanAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.plans[plan.AccountID] = *plan
	return nil
}

type memQuota struct{ *memStore }

func (r memQuota) CheckAndIncrement(_ context.Context, charge repository.UsageCharge) (*repository.LedgerOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	if _, ok := r.accounts[charge.AccountID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	plan, ok := r.plans[charge.AccountID]
	if !ok {
		plan = charge.DefaultPlan
		plan.AccountID = charge.AccountID
		r.plans[charge.AccountID] = plan
	}

	day := models.UsageDay(charge.At)
	usage := r.usageLocked(charge.AccountID, day)
	out := &repository.LedgerOutcome{Tier: plan.Tier, Ceiling: plan.DailyCeiling, Usage: usage}
	if usage >= plan.DailyCeiling {
		return out, nil
	}

	if r.counters[charge.CredentialID] == nil {
		r.counters[charge.CredentialID] = map[time.Time]int{}
	}
	r.counters[charge.CredentialID][day]++
	r.logs++
	out.Allowed = true
	out.Usage = usage + 1
	return out, nil
}

func (r memQuota) CurrentUsage(_ context.Context, accountID uuid.UUID, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return 0, r.fail
	}
	return r.usageLocked(accountID, models.UsageDay(day)), nil
}

func (r memQuota) DailyHistory(_ context.Context, accountID uuid.UUID, since time.Time) ([]models.DailyUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := map[time.Time]int{}
	for id, c := range r.credentials {
		if c.AccountID != accountID {
			continue
		}
		for day, n := range r.counters[id] {
			if !day.Before(models.UsageDay(since)) {
				totals[day] += n
			}
		}
	}
	var out []models.DailyUsage
	for day, n := range totals {
		out = append(out, models.DailyUsage{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memQuota) TotalLogged(context.Context, uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, nil
}

type memAttempts struct{ *memStore }

func (r memAttempts) CheckAndRecord(_ context.Context, identifier, action string, max int, window time.Duration, now time.Time) (repository.ActionVerdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return repository.ActionVerdict{}, r.fail
	}
	key := identifier + ":" + action
	cutoff := now.Add(-window)
	var kept []time.Time
	for _, ts := range r.attempts[key] {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.attempts[key] = kept
	if len(kept) >= max {
		wait := kept[0].Add(window).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return repository.ActionVerdict{RetryAfter: wait}, nil
	}
	r.attempts[key] = append(kept, now)
	return repository.ActionVerdict{Allowed: true}, nil
}

type memCodes struct{ *memStore }

func (r memCodes) Replace(_ context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *code
	r.codes[code.AccountID] = &cp
	return nil
}

func (r memCodes) Get(_ context.Context, accountID uuid.UUID) (*models.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCodes) Delete(_ context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, accountID)
	return nil
}

// captureMailer remembers the last code sent to each address.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: map[string]string{}}
}

func (m *captureMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *captureMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type recordingStats struct {
	mu     sync.Mutex
	counts map[Outcome]int
	err    error
}

func (s *recordingStats) Record(_ context.Context, outcome Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[Outcome]int{}
	}
	s.counts[outcome]++
	return s.err
}

func (s *recordingStats) Totals(context.Context, time.Time) (map[string]int64, error) {
	return nil, nil
}

type memAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
	fail error
}

func (r *memAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return apperrors.Infra(r.fail, "audit")
	}
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memAudit) ListAuditLogs(_ context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := (page - 1) * pageSize
	if start >= len(r.logs) {
		return nil, int64(len(r.logs)), nil
	}
	end := start + pageSize
	if end > len(r.logs) {
		end = len(r.logs)
	}
	return append([]models.AuditLog(nil), r.logs[start:end]...), int64(len(r.logs)), nil
}
