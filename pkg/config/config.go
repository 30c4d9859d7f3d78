package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CREBMATCH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Chat         ChatConfig
	Documents    DocumentsConfig
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
	Env          string `envconfig:"CREBMATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"CREBMATCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CREBMATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CREBMATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CREBMATCH_DB_DSN"`
	Driver string `envconfig:"CREBMATCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CREBMATCH_DB_HOST"`
	LegacyPort     int    `envconfig:"CREBMATCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CREBMATCH_DB_USER"`
	LegacyPassword string `envconfig:"CREBMATCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"CREBMATCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"CREBMATCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CREBMATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CREBMATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CREBMATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CREBMATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CREBMATCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CREBMATCH_REDIS_ADDR"`
	Password     string        `envconfig:"CREBMATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"CREBMATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CREBMATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CREBMATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CREBMATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CREBMATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CREBMATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CREBMATCH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CREBMATCH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CREBMATCH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool   `envconfig:"CREBMATCH_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"CREBMATCH_GCS_ACCESS_MODE" default:"public"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CREBMATCH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CREBMATCH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CREBMATCH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"CREBMATCH_GCS_BUCKET_NAME"`
	LeasePath  string `envconfig:"CREBMATCH_GCS_LEASE_PATH" default:"leases"`
}

type PubSubConfig struct {
	DealsTopic        string `envconfig:"CREBMATCH_PUBSUB_DEALS_TOPIC" default:"crebmatch-deal-events"`
	DealsSubscription string `envconfig:"CREBMATCH_PUBSUB_DEALS_SUBSCRIPTION"`
}

type ChatConfig struct {
	SubscriberBuffer int           `envconfig:"CREBMATCH_CHAT_SUBSCRIBER_BUFFER" default:"64"`
	WriteTimeout     time.Duration `envconfig:"CREBMATCH_CHAT_WRITE_TIMEOUT" default:"10s"`
}

type DocumentsConfig struct {
	UploadAttempts int           `envconfig:"CREBMATCH_DOCUMENTS_UPLOAD_ATTEMPTS" default:"3"`
	UploadBackoff  time.Duration `envconfig:"CREBMATCH_DOCUMENTS_UPLOAD_BACKOFF" default:"200ms"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"CREBMATCH_DB_HOST": db.LegacyHost,
		"CREBMATCH_DB_USER": db.LegacyUser,
		"CREBMATCH_DB_NAME": db.LegacyName,
	}
	for _, envVar := range []string{"CREBMATCH_DB_HOST", "CREBMATCH_DB_USER", "CREBMATCH_DB_NAME"} {
		if legacyValues[envVar] == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either CREBMATCH_DB_DSN or %s are required", strings.Join(missing, ", "))
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
