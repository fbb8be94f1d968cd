package migrations

import "gorm.io/gorm"

type Migration struct {
	Name string
	Run  func(*gorm.DB) error
}

// exec runs each statement in order inside the migration's transaction.
func exec(statements ...string) func(*gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}
}

func GetMigrations() []Migration {
	return []Migration{
		{
			Name: "CreateAccountsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS accounts (
					id UUID PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					verification_state VARCHAR(20) NOT NULL DEFAULT 'unverified'
						CHECK (verification_state IN ('unverified', 'verified')),
					role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
					verified_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`),
		},
		{
			Name: "CreateCredentialsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS credentials (
					id UUID PRIMARY KEY,
					account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					secret_hash CHAR(64) NOT NULL UNIQUE,
					display_prefix VARCHAR(16) NOT NULL,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					revoked_at TIMESTAMPTZ
				)`,
				`CREATE INDEX IF NOT EXISTS idx_credentials_account_id ON credentials(account_id)`),
		},
		{
			Name: "CreatePlanAssignmentsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS plan_assignments (
					account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
					tier VARCHAR(20) NOT NULL CHECK (tier IN ('standard', 'elevated')),
					daily_ceiling INTEGER NOT NULL CHECK (daily_ceiling > 0),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`),
		},
		{
			Name: "CreateUsageCountersTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS usage_counters (
					credential_id UUID NOT NULL REFERENCES credentials(id) ON DELETE CASCADE,
					usage_date DATE NOT NULL,
					count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
					PRIMARY KEY (credential_id, usage_date)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_usage_counters_usage_date ON usage_counters(usage_date)`),
		},
		{
			Name: "CreateUsageLogsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS usage_logs (
					id BIGSERIAL PRIMARY KEY,
					credential_id UUID NOT NULL REFERENCES credentials(id) ON DELETE CASCADE,
					endpoint VARCHAR(255) NOT NULL,
					result_code INTEGER NOT NULL,
					timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_usage_logs_credential_ts ON usage_logs(credential_id, timestamp)`),
		},
		{
			Name: "CreateActionAttemptsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS action_attempts (
					id BIGSERIAL PRIMARY KEY,
					identifier VARCHAR(255) NOT NULL,
					action VARCHAR(64) NOT NULL,
					attempted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_action_attempts_key ON action_attempts(identifier, action, attempted_at)`),
		},
		{
			Name: "CreateVerificationCodesTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS verification_codes (
					account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
					code_hash VARCHAR(255) NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`),
		},
		{
			Name: "CreateAuditLogsTable",
			Run: exec(`
				CREATE TABLE IF NOT EXISTS audit_logs (
					id BIGSERIAL PRIMARY KEY,
					actor VARCHAR(255) NOT NULL,
					action VARCHAR(64) NOT NULL,
					entity_type VARCHAR(64) NOT NULL,
					entity_id VARCHAR(64) NOT NULL,
					details TEXT NOT NULL DEFAULT '',
					timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp DESC)`),
		},
	}
}
