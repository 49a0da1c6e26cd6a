package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// DedupWindow is the trailing interval during which content-identical
	// creation requests collapse into one persisted row. DedupCacheTTL is the
	// lifetime of entries in the in-process last-seen cache. The two are
	// independent knobs.
	DedupWindow   time.Duration
	DedupCacheTTL time.Duration

	JWTPublicKeyPath string
	CSRFSecret       string
	CSRFTokenTTL     time.Duration

	SNSTopicARN    string
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	OpsEmail       string // when set, system notifications are mirrored here
	ArchiveBucket  string
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications       string
	SuppressionSessions string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications:       getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			SuppressionSessions: getEnv("DYNAMO_TABLE_SUPPRESSION_SESSIONS", "suppression_sessions"),
		},

		DedupWindow:   getEnvDuration("NOTIFY_DEDUP_WINDOW", 5*time.Minute),
		DedupCacheTTL: getEnvDuration("NOTIFY_DEDUP_CACHE_TTL", time.Minute),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		CSRFSecret:       getEnv("CSRF_SECRET", ""),
		CSRFTokenTTL:     getEnvDuration("CSRF_TOKEN_TTL", 12*time.Hour),

		SNSTopicARN:    getEnv("SNS_TOPIC_ARN", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		OpsEmail:       getEnv("SMTP_OPS_EMAIL", ""),
		ArchiveBucket:  getEnv("S3_ARCHIVE_BUCKET", ""),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
