package repository

import (
	"context"
	"net/http"
	"time"

	"movie-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageCharge is one metered request to be counted against an account.
type UsageCharge struct {
	AccountID    uuid.UUID
	CredentialID uuid.UUID
	Endpoint     string
	At           time.Time
	DefaultPlan  models.PlanAssignment
}

// LedgerOutcome is what the ledger saw while holding the account lock.
// Usage is post-increment when Allowed.
type LedgerOutcome struct {
	Allowed bool
	Tier    models.PlanTier
	Ceiling int
	Usage   int
}

type QuotaRepository interface {
	CheckAndIncrement(ctx context.Context, charge UsageCharge) (*LedgerOutcome, error)
	CurrentUsage(ctx context.Context, accountID uuid.UUID, day time.Time) (int, error)
	DailyHistory(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.DailyUsage, error)
	TotalLogged(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type quotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) QuotaRepository {
	return &quotaRepository{db: db}
}

const accountUsageSQL = `
	SELECT COALESCE(SUM(uc.count), 0)
	FROM usage_counters uc
	JOIN credentials c ON c.id = uc.credential_id
	WHERE c.account_id = ? AND uc.usage_date = ?`

// CheckAndIncrement reads the account's daily total and ceiling and, if
// there is budget left, records the request, all in one transaction. The
// plan row is locked FOR UPDATE so checks for the same account serialize
// no matter which credential they arrive on.
func (r *quotaRepository) CheckAndIncrement(ctx context.Context, charge UsageCharge) (*LedgerOutcome, error) {
	day := models.UsageDay(charge.At)
	var outcome LedgerOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(materializePlanSQL,
			charge.AccountID, charge.DefaultPlan.Tier, charge.DefaultPlan.DailyCeiling, charge.At).Error; err != nil {
			return err
		}

		var plan models.PlanAssignment
		result := tx.Raw(`SELECT account_id, tier, daily_ceiling, updated_at FROM plan_assignments WHERE account_id = ? FOR UPDATE`,
			charge.AccountID).Scan(&plan)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var usage int
		if err := tx.Raw(accountUsageSQL, charge.AccountID, day).Scan(&usage).Error; err != nil {
			return err
		}

		outcome.Tier = plan.Tier
		outcome.Ceiling = plan.DailyCeiling
		outcome.Usage = usage
		if usage >= plan.DailyCeiling {
			return nil
		}

		if err := tx.Exec(`INSERT INTO usage_logs (credential_id, endpoint, result_code, timestamp) VALUES (?, ?, ?, ?)`,
			charge.CredentialID, charge.Endpoint, http.StatusOK, charge.At).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			INSERT INTO usage_counters (credential_id, usage_date, count)
			VALUES (?, ?, 1)
			ON CONFLICT (credential_id, usage_date) DO UPDATE SET count = usage_counters.count + 1`,
			charge.CredentialID, day).Error; err != nil {
			return err
		}

		outcome.Allowed = true
		outcome.Usage = usage + 1
		return nil
	})
	if err != nil {
		return nil, storeError(err, "quota check failed")
	}
	return &outcome, nil
}

func (r *quotaRepository) CurrentUsage(ctx context.Context, accountID uuid.UUID, day time.Time) (int, error) {
	var usage int
	if err := r.db.WithContext(ctx).Raw(accountUsageSQL, accountID, models.UsageDay(day)).Scan(&usage).Error; err != nil {
		return 0, storeError(err, "failed to read usage")
	}
	return usage, nil
}

func (r *quotaRepository) DailyHistory(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.DailyUsage, error) {
	var history []models.DailyUsage
	err := r.db.WithContext(ctx).Raw(`
		SELECT uc.usage_date AS date, SUM(uc.count) AS count
		FROM usage_counters uc
		JOIN credentials c ON c.id = uc.credential_id
		WHERE c.account_id = ? AND uc.usage_date >= ?
		GROUP BY uc.usage_date
		ORDER BY uc.usage_date DESC`, accountID, models.UsageDay(since)).Scan(&history).Error
	if err != nil {
		return nil, storeError(err, "failed to read usage history")
	}
	return history, nil
}

func (r *quotaRepository) TotalLogged(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM usage_logs ul
		JOIN credentials c ON c.id = ul.credential_id
		WHERE c.account_id = ?`, accountID).Scan(&total).Error
	if err != nil {
		return 0, storeError(err, "failed to count usage logs")
	}
	return total, nil
}
