package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeesConfig
	Stripe       StripeConfig
	Resend       ResendConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STADIUMCARD_APP_ENV" required:"true"`
	Port         string `envconfig:"STADIUMCARD_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"STADIUMCARD_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"STADIUMCARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STADIUMCARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STADIUMCARD_DB_DSN"`
	Driver string `envconfig:"STADIUMCARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STADIUMCARD_DB_HOST"`
	LegacyPort     int    `envconfig:"STADIUMCARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STADIUMCARD_DB_USER"`
	LegacyPassword string `envconfig:"STADIUMCARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"STADIUMCARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"STADIUMCARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STADIUMCARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STADIUMCARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STADIUMCARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STADIUMCARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STADIUMCARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STADIUMCARD_REDIS_ADDR"`
	Password     string        `envconfig:"STADIUMCARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"STADIUMCARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STADIUMCARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STADIUMCARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STADIUMCARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STADIUMCARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STADIUMCARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STADIUMCARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STADIUMCARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STADIUMCARD_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeesConfig carries the raw fee settings. Parsing is lenient by design: the
// fee engine falls back to its built-in defaults when a value is malformed.
type FeesConfig struct {
	PlatformFeeRate    string `envconfig:"STADIUMCARD_PLATFORM_FEE_RATE"`
	WithdrawalFeeTiers string `envconfig:"STADIUMCARD_WITHDRAWAL_FEE_TIERS"`
	MinPayoutAmount    int    `envconfig:"STADIUMCARD_MIN_PAYOUT_AMOUNT" default:"1000"`
}

type StripeConfig struct {
	APIKey string `envconfig:"STADIUMCARD_STRIPE_API_KEY"`
	Secret string `envconfig:"STADIUMCARD_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"STADIUMCARD_STRIPE_ENV" default:"test"`

	// WebhookEventTTL bounds the duplicate-delivery guard in Redis.
	WebhookEventTTL time.Duration `envconfig:"STADIUMCARD_WEBHOOK_EVENT_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ResendConfig struct {
	APIKey      string `envconfig:"STADIUMCARD_RESEND_API_KEY"`
	FromEmail   string `envconfig:"STADIUMCARD_RESEND_FROM_EMAIL" default:"onboarding@resend.dev"`
	AdminEmails string `envconfig:"STADIUMCARD_ADMIN_EMAILS"`
}

// AdminRecipients splits the comma-separated operator address list.
func (r ResendConfig) AdminRecipients() []string {
	if strings.TrimSpace(r.AdminEmails) == "" {
		return nil
	}
	parts := strings.Split(r.AdminEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STADIUMCARD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
