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
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPLIST_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPLIST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHIPLIST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPLIST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHIPLIST_DB_DSN"`
	Driver string `envconfig:"SHIPLIST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHIPLIST_DB_HOST"`
	LegacyPort     int    `envconfig:"SHIPLIST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHIPLIST_DB_USER"`
	LegacyPassword string `envconfig:"SHIPLIST_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHIPLIST_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHIPLIST_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SHIPLIST_SQLITE_PATH" default:"shiplist.db"`

	MaxOpenConns    int           `envconfig:"SHIPLIST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHIPLIST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHIPLIST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIPLIST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"SHIPLIST_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIPLIST_REDIS_URL"`
	Address      string        `envconfig:"SHIPLIST_REDIS_ADDR"`
	Password     string        `envconfig:"SHIPLIST_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIPLIST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIPLIST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIPLIST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIPLIST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPLIST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPLIST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SHIPLIST_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHIPLIST_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHIPLIST_JWT_EXPIRATION_MINUTES" default:"480"`
}

// SessionConfig tunes the per-editor manufacturing table sessions.
type SessionConfig struct {
	TTL                  time.Duration `envconfig:"SHIPLIST_SESSION_TTL" default:"12h"`
	TouchDragThresholdPx float64       `envconfig:"SHIPLIST_SESSION_TOUCH_THRESHOLD_PX" default:"10"`
	LockTTL              time.Duration `envconfig:"SHIPLIST_SESSION_LOCK_TTL" default:"10s"`
	LockWait             time.Duration `envconfig:"SHIPLIST_SESSION_LOCK_WAIT" default:"3s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHIPLIST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHIPLIST_AUTO_MIGRATE" default:"false"`
}

// GCPConfig leaves both credential fields empty to fall back to application
// default credentials. Inline JSON wins over a file path.
type GCPConfig struct {
	ProjectID       string `envconfig:"SHIPLIST_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"SHIPLIST_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"SHIPLIST_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ManufacturingTopic        string        `envconfig:"SHIPLIST_PUBSUB_MANUFACTURING_TOPIC" default:"manufacturing-events"`
	ManufacturingSubscription string        `envconfig:"SHIPLIST_PUBSUB_MANUFACTURING_SUBSCRIPTION"`
	IdempotencyTTL            time.Duration `envconfig:"SHIPLIST_PUBSUB_IDEMPOTENCY_TTL" default:"168h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHIPLIST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHIPLIST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHIPLIST_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// RateLimitConfig throttles mutating manufacturing requests per editor and IP.
type RateLimitConfig struct {
	MutationWindow      time.Duration `envconfig:"SHIPLIST_RATE_LIMIT_MUTATION_WINDOW" default:"1m"`
	MutationIPLimit     int           `envconfig:"SHIPLIST_RATE_LIMIT_MUTATION_IP_LIMIT" default:"600"`
	MutationEditorLimit int           `envconfig:"SHIPLIST_RATE_LIMIT_MUTATION_EDITOR_LIMIT" default:"300"`
	ImportWindow        time.Duration `envconfig:"SHIPLIST_RATE_LIMIT_IMPORT_WINDOW" default:"1h"`
	ImportEditorLimit   int           `envconfig:"SHIPLIST_RATE_LIMIT_IMPORT_EDITOR_LIMIT" default:"20"`
}

// CronConfig schedules the housekeeping jobs of the cron worker.
type CronConfig struct {
	Interval              time.Duration `envconfig:"SHIPLIST_CRON_INTERVAL" default:"6h"`
	OutboxRetentionDays   int           `envconfig:"SHIPLIST_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	ActivityRetentionDays int           `envconfig:"SHIPLIST_CRON_ACTIVITY_RETENTION_DAYS" default:"180"`
	DLQRetentionDays      int           `envconfig:"SHIPLIST_CRON_DLQ_RETENTION_DAYS" default:"90"`
}

type CORSConfig struct {
	AllowedOrigins []string      `envconfig:"SHIPLIST_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAge         time.Duration `envconfig:"SHIPLIST_CORS_MAX_AGE" default:"5m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
