package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Eventing      EventingConfig
	Cron          CronConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"GATHERLY_APP_ENV" required:"true"`
	Port         string `envconfig:"GATHERLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GATHERLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GATHERLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GATHERLY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GATHERLY_DB_DSN"`
	Driver string `envconfig:"GATHERLY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GATHERLY_DB_HOST"`
	Port     int    `envconfig:"GATHERLY_DB_PORT" default:"5432"`
	User     string `envconfig:"GATHERLY_DB_USER"`
	Password string `envconfig:"GATHERLY_DB_PASSWORD"`
	Name     string `envconfig:"GATHERLY_DB_NAME"`
	SSLMode  string `envconfig:"GATHERLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GATHERLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GATHERLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GATHERLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GATHERLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GATHERLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GATHERLY_REDIS_ADDR"`
	Password     string        `envconfig:"GATHERLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GATHERLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GATHERLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GATHERLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GATHERLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GATHERLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GATHERLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GATHERLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GATHERLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GATHERLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GATHERLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GATHERLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GATHERLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GATHERLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GATHERLY_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GATHERLY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GATHERLY_GCP_PROJECT_ID" required:"true"`
	ApplicationCredentials string `envconfig:"GATHERLY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"GATHERLY_PUBSUB_DOMAIN_TOPIC" default:"gatherly-domain-events"`
	DomainSubscription string `envconfig:"GATHERLY_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GATHERLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GATHERLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GATHERLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"GATHERLY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"GATHERLY_CRON_INTERVAL" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GATHERLY_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"GATHERLY_AUTH_RL_LOGIN_IP_LIMIT" default:"30"`
	LoginEmailLimit    int           `envconfig:"GATHERLY_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"GATHERLY_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"GATHERLY_AUTH_RL_REGISTER_IP_LIMIT" default:"20"`
	RegisterEmailLimit int           `envconfig:"GATHERLY_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
