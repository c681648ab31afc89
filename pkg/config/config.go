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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Billing      BillingConfig
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
	Env          string `envconfig:"SELFY_APP_ENV" required:"true"`
	Port         string `envconfig:"SELFY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SELFY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELFY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SELFY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SELFY_DB_DSN"`
	Driver string `envconfig:"SELFY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SELFY_DB_HOST"`
	LegacyPort     int    `envconfig:"SELFY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SELFY_DB_USER"`
	LegacyPassword string `envconfig:"SELFY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SELFY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SELFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SELFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SELFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SELFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SELFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELFY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SELFY_REDIS_ADDR"`
	Password     string        `envconfig:"SELFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SELFY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SELFY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SELFY_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SELFY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SELFY_AUTO_MIGRATE" default:"false"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"SELFY_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"SELFY_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"SELFY_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID string `envconfig:"SELFY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	BookingTopic        string `envconfig:"SELFY_PUBSUB_BOOKING_TOPIC" default:"selfy-booking-events"`
	BillingTopic        string `envconfig:"SELFY_PUBSUB_BILLING_TOPIC" default:"selfy-billing-events"`
	BookingSubscription string `envconfig:"SELFY_PUBSUB_BOOKING_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"SELFY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"SELFY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"SELFY_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"SELFY_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
}

type CronConfig struct {
	Interval                 time.Duration `envconfig:"SELFY_CRON_INTERVAL" default:"24h"`
	LockTTL                  time.Duration `envconfig:"SELFY_CRON_LOCK_TTL" default:"25h"`
	NotificationRetentionDay int           `envconfig:"SELFY_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

type BillingConfig struct {
	Currency string `envconfig:"SELFY_BILLING_CURRENCY" default:"USD"`
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
