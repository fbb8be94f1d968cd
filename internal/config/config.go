package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "movie-api/internal/pkg/errors"
)

type Config struct {
	Port               string
	DatabaseURL        string
	MaxOpenConns       int
	CatalogUpstreamURL string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFile            string

	Cache   *CacheConfig
	Quota   *QuotaConfig
	Actions *ActionConfig
	Auth    *AuthConfig
	Mail    *MailConfig
	Billing *BillingConfig
}

type CacheConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StatsTTL      time.Duration
}

type QuotaConfig struct {
	DefaultCeiling  int
	ElevatedCeiling int
	StoreTimeout    time.Duration
}

// ActionPolicy bounds how often one identifier may perform an action.
type ActionPolicy struct {
	Action      string
	MaxAttempts int
	Window      time.Duration
}

type ActionConfig struct {
	Backend string
	Signup  ActionPolicy
	Resend  ActionPolicy
	Verify  ActionPolicy
}

type AuthConfig struct {
	CredentialPrefix string
	AdminJWTSecret   string
	IPRate           float64
	IPBurst          int
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
}

type MailConfig struct {
	SendGridAPIKey    string
	From              string
	FromName          string
	AllowedDomains    []string
	DisposableDomains []string
	CodeTTL           time.Duration
}

type BillingConfig struct {
	StripeWebhookSecret string
}

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

const (
	ActionSignup = "signup"
	ActionResend = "resend_verification"
	ActionVerify = "verify"
)

func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "5050"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
		CatalogUpstreamURL: getEnv("CATALOG_UPSTREAM_URL", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		Cache:              NewCacheConfig(),
		Quota: &QuotaConfig{
			DefaultCeiling:  getEnvInt("DEFAULT_DAILY_CEILING", 100),
			ElevatedCeiling: getEnvInt("ELEVATED_DAILY_CEILING", 500),
			StoreTimeout:    getEnvDuration("STORE_TIMEOUT", 2*time.Second),
		},
		Actions: &ActionConfig{
			Backend: strings.ToLower(getEnv("ACTION_LIMITER_BACKEND", BackendPostgres)),
			Signup: ActionPolicy{
				Action:      ActionSignup,
				MaxAttempts: getEnvInt("SIGNUP_MAX_ATTEMPTS", 3),
				Window:      getEnvDuration("SIGNUP_WINDOW", time.Hour),
			},
			Resend: ActionPolicy{
				Action:      ActionResend,
				MaxAttempts: getEnvInt("RESEND_MAX_ATTEMPTS", 3),
				Window:      getEnvDuration("RESEND_WINDOW", time.Minute),
			},
			Verify: ActionPolicy{
				Action:      ActionVerify,
				MaxAttempts: getEnvInt("VERIFY_MAX_ATTEMPTS", 5),
				Window:      getEnvDuration("VERIFY_WINDOW", 15*time.Minute),
			},
		},
		Auth: &AuthConfig{
			CredentialPrefix: getEnv("CREDENTIAL_PREFIX", "mk"),
			AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
			IPRate:           getEnvFloat("AUTH_IP_RPS", 1),
			IPBurst:          getEnvInt("AUTH_IP_BURST", 5),
		},
		Mail: &MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			From:           getEnv("MAIL_FROM", ""),
			FromName:       getEnv("MAIL_FROM_NAME", "Movie API"),
			AllowedDomains: getEnvList("ALLOWED_EMAIL_DOMAINS", []string{"gmail.com", "yahoo.com", "outlook.com", "hotmail.com"}),
			DisposableDomains: getEnvList("DISPOSABLE_EMAIL_DOMAINS", []string{
				"10minutemail.com", "tempmail.org", "guerrillamail.com", "mailinator.com",
				"throwaway.email", "temp-mail.org", "getairmail.com", "yopmail.com",
				"sharklasers.com", "guerrillamailblock.com", "pokemail.net", "spam4.me",
			}),
			CodeTTL: getEnvDuration("VERIFICATION_CODE_TTL", 15*time.Minute),
		},
		Billing: &BillingConfig{
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
	}

	proxies, err := parsePrefixes(getEnvList("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, err
	}
	cfg.Auth.TrustedProxies = proxies

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parsePrefixes accepts CIDR blocks and bare addresses.
func parsePrefixes(list []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range list {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, apperrors.Invalid(fmt.Sprintf("TRUSTED_PROXIES: invalid entry %q", entry))
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:       getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StatsTTL:      getEnvDuration("REDIS_STATS_TTL", 72*time.Hour),
	}
}

// Validate rejects configurations that would let the gate run without a usable
// ceiling, window or timeout.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperrors.Invalid("DATABASE_URL environment variable is required")
	}
	if c.CatalogUpstreamURL == "" {
		return apperrors.Invalid("CATALOG_UPSTREAM_URL environment variable is required")
	}
	if c.Auth.AdminJWTSecret == "" {
		return apperrors.Invalid("ADMIN_JWT_SECRET environment variable is required")
	}
	if c.Quota.DefaultCeiling <= 0 || c.Quota.ElevatedCeiling <= 0 {
		return apperrors.Invalid("daily ceilings must be positive")
	}
	if c.Quota.StoreTimeout <= 0 {
		return apperrors.Invalid("STORE_TIMEOUT must be positive")
	}
	for _, p := range []ActionPolicy{c.Actions.Signup, c.Actions.Resend, c.Actions.Verify} {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	switch c.Actions.Backend {
	case BackendPostgres:
	case BackendRedis:
		if !c.Cache.Enabled {
			return apperrors.Invalid("ACTION_LIMITER_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return apperrors.Invalid(fmt.Sprintf("unknown ACTION_LIMITER_BACKEND %q", c.Actions.Backend))
	}
	if c.Mail.CodeTTL <= 0 {
		return apperrors.Invalid("VERIFICATION_CODE_TTL must be positive")
	}
	if c.Auth.IPRate <= 0 || c.Auth.IPBurst <= 0 {
		return apperrors.Invalid("AUTH_IP_RPS and AUTH_IP_BURST must be positive")
	}
	return nil
}

func (p ActionPolicy) Validate() error {
	if strings.TrimSpace(p.Action) == "" {
		return apperrors.Invalid("action label is required")
	}
	if p.MaxAttempts <= 0 {
		return apperrors.Invalid(fmt.Sprintf("%s: max attempts must be positive", p.Action))
	}
	if p.Window <= 0 {
		return apperrors.Invalid(fmt.Sprintf("%s: window must be positive", p.Action))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
