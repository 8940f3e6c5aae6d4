package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env       Env
	Server    ServerConfig
	Database  DatabaseConfig
	NATS      NATSConfig
	Storage   StorageConfig
	Minio     MinioConfig
	S3        S3Config
	Legacy    LegacyConfig
	Migration MigrationConfig
	Alert     AlertConfig
	Metrics   MetricsConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// StorageConfig selects the object store driver and the buckets of a migration
type StorageConfig struct {
	Driver            string `envconfig:"STORAGE_DRIVER" default:"minio"`
	SourceBucket      string `envconfig:"STORAGE_SOURCE_BUCKET" required:"true"`
	DestinationBucket string `envconfig:"STORAGE_DESTINATION_BUCKET" required:"true"`
}

type MinioConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type S3Config struct {
	Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	EndpointURL  string `envconfig:"S3_ENDPOINT_URL"`
	AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	SecretKey    string `envconfig:"S3_SECRET_KEY"`
	UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

// LegacyConfig configures the legacy repository REST connector
type LegacyConfig struct {
	BaseURL             string        `envconfig:"LEGACY_BASE_URL" required:"true"`
	RequestTimeout      time.Duration `envconfig:"LEGACY_REQUEST_TIMEOUT" default:"30s"`
	DownloadTimeout     time.Duration `envconfig:"LEGACY_DOWNLOAD_TIMEOUT" default:"10m"`
	DownloadConcurrency int           `envconfig:"LEGACY_DOWNLOAD_CONCURRENCY" default:"4"`
	RetryMax            int           `envconfig:"LEGACY_RETRY_MAX" default:"3"`
	RequestsPerSecond   float64       `envconfig:"LEGACY_REQUESTS_PER_SECOND" default:"10"`
	StagingDir          string        `envconfig:"LEGACY_STAGING_DIR" default:"/tmp/legacy-staging"`
	HandleCacheSize     int           `envconfig:"LEGACY_HANDLE_CACHE_SIZE" default:"1024"`
	HandleCacheTTL      time.Duration `envconfig:"LEGACY_HANDLE_CACHE_TTL" default:"1h"`
}

// MigrationConfig holds orchestrator and maintenance settings
type MigrationConfig struct {
	SkipARKs        []string      `envconfig:"MIGRATION_SKIP_ARKS"`
	StagingTTL      time.Duration `envconfig:"MIGRATION_STAGING_TTL" default:"24h"`
	StalledAfter    time.Duration `envconfig:"MIGRATION_STALLED_AFTER" default:"6h"`
	CleanupSchedule string        `envconfig:"MIGRATION_CLEANUP_SCHEDULE" default:"0 */15 * * * *"`
	UpdateRetries   int           `envconfig:"MIGRATION_UPDATE_RETRIES" default:"8"`
}

type NATSConfig struct {
	URL               string `envconfig:"NATS_URL" required:"true"`
	StreamName        string `envconfig:"NATS_STREAM_NAME" required:"true"`
	ConsumerName      string `envconfig:"NATS_CONSUMER_NAME" required:"true"`
	Subject           string `envconfig:"NATS_SUBJECT" required:"true"`
	ActivitySubject   string `envconfig:"NATS_ACTIVITY_SUBJECT" default:"migration.activity"`
	MaxDeliver        int    `envconfig:"NATS_MAX_DELIVER" default:"5"`
	AckWaitSeconds    int    `envconfig:"NATS_ACK_WAIT_SECONDS" default:"300"`
	CreateStreamIfNil bool   `envconfig:"NATS_CREATE_STREAM" default:"true"`
}

// AlertConfig configures the operator alert channel. Without webhook alerts go to the log.
type AlertConfig struct {
	WebhookURL string `envconfig:"ALERT_WEBHOOK_URL"`
	Channel    string `envconfig:"ALERT_CHANNEL" default:"migration"`
}

type MetricsConfig struct {
	Port string `envconfig:"METRICS_PORT" default:"9090"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
