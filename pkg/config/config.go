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
	Payout       PayoutConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"TINDAGO_APP_ENV" required:"true"`
	Port         string `envconfig:"TINDAGO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TINDAGO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TINDAGO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TINDAGO_DB_DSN"`
	Driver string `envconfig:"TINDAGO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TINDAGO_DB_HOST"`
	Port     int    `envconfig:"TINDAGO_DB_PORT" default:"5432"`
	User     string `envconfig:"TINDAGO_DB_USER"`
	Password string `envconfig:"TINDAGO_DB_PASSWORD"`
	Name     string `envconfig:"TINDAGO_DB_NAME"`
	SSLMode  string `envconfig:"TINDAGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TINDAGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TINDAGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TINDAGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TINDAGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TINDAGO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TINDAGO_REDIS_ADDR"`
	Password     string        `envconfig:"TINDAGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"TINDAGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TINDAGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TINDAGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TINDAGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TINDAGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TINDAGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TINDAGO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TINDAGO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TINDAGO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PayoutConfig tunes the weekly payout invoice generator.
type PayoutConfig struct {
	DefaultFeePercent   float64       `envconfig:"TINDAGO_PAYOUT_DEFAULT_FEE_PERCENT" default:"15"`
	OrderSummaryCap     int           `envconfig:"TINDAGO_PAYOUT_ORDER_SUMMARY_CAP" default:"20"`
	PendingPaymentTTL   time.Duration `envconfig:"TINDAGO_PAYOUT_PENDING_PAYMENT_TTL" default:"240h"`
	GenerationLookback  int           `envconfig:"TINDAGO_PAYOUT_GENERATION_LOOKBACK_PERIODS" default:"1"`
	DocumentURLPrefix   string        `envconfig:"TINDAGO_PAYOUT_DOCUMENT_URL_PREFIX" default:""`
	InvoiceNumberPrefix string        `envconfig:"TINDAGO_PAYOUT_INVOICE_NUMBER_PREFIX" default:"INV"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"TINDAGO_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"TINDAGO_GCP_CREDENTIALS_JSON"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"TINDAGO_GCS_BUCKET_NAME"`
	DownloadURLExpiry time.Duration `envconfig:"TINDAGO_GCS_DOWNLOAD_URL_EXPIRY" default:"168h"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"TINDAGO_PUBSUB_DOMAIN_TOPIC" default:"tg-domain-events"`
	DomainSubscription string `envconfig:"TINDAGO_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TINDAGO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TINDAGO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TINDAGO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TINDAGO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TINDAGO_AUTO_MIGRATE" default:"false"`
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
	for _, env := range requiredDBEnvVars {
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
