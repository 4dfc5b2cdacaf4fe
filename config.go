package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// secretsName holds the JSON map that overrides credentials on AWS.
const secretsName = "soulsystem/APP_SECRETS"

// Registry backends selectable with REGISTRY_BACKEND.
const (
	backendFile     = "file"
	backendS3       = "s3"
	backendRedis    = "redis"
	backendDynamoDB = "dynamodb"
)

// Config holds all configuration for the service.
type Config struct {
	Port    string
	BaseURL string
	Env     string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeTimeout       time.Duration
	SoulMarkSecret      string

	RegistryBackend     string
	RegistryPath        string
	RegistryS3Bucket    string
	RegistryS3Key       string
	RedisURL            string
	RegistryRedisKey    string
	RegistryDynamoTable string
	RegistryMaxRetries  int

	EventsSNSTopicARN  string
	CORSAllowedOrigins []string
	RateLimitRPM       int
	RequestTimeout     time.Duration
	UseSecretsManager  bool
}

// SecretMapReader is implemented by *aws.SecretsClient.
type SecretMapReader interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:    getEnv("PORT", "4242"),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:4242"), "/"),
		Env:     getEnv("ENV", "development"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SoulMarkSecret:      os.Getenv("SOULMARK_SECRET"),

		RegistryBackend:     strings.ToLower(getEnv("REGISTRY_BACKEND", backendFile)),
		RegistryPath:        getEnv("REGISTRY_PATH", "registry.json"),
		RegistryS3Bucket:    os.Getenv("REGISTRY_S3_BUCKET"),
		RegistryS3Key:       getEnv("REGISTRY_S3_KEY", "registry.json"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		RegistryRedisKey:    getEnv("REGISTRY_REDIS_KEY", "soulsystem:registry"),
		RegistryDynamoTable: os.Getenv("REGISTRY_DYNAMO_TABLE"),

		EventsSNSTopicARN: os.Getenv("EVENTS_SNS_TOPIC_ARN"),
		UseSecretsManager: os.Getenv("AWS_USE_SECRETS") == "true",
	}

	var err error
	if cfg.StripeTimeout, err = getDuration("STRIPE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RegistryMaxRetries, err = getInt("REGISTRY_MAX_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = getInt("RATE_LIMIT_RPM", 100); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = []string{cfg.BaseURL}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(o), "/")); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

// ApplySecrets overrides credentials with values from Secrets Manager.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretMapReader) error {
	values, err := sm.GetSecretMap(ctx, secretsName)
	if err != nil {
		return err
	}
	if v := values["STRIPE_SECRET_KEY"]; v != "" {
		c.StripeSecretKey = v
	}
	if v := values["STRIPE_WEBHOOK_SECRET"]; v != "" {
		c.StripeWebhookSecret = v
	}
	if v := values["SOULMARK_SECRET"]; v != "" {
		c.SoulMarkSecret = v
	}
	return nil
}

// Validate reports missing required settings. The service must not start
// without a SoulMark secret.
func (c *Config) Validate() error {
	if c.SoulMarkSecret == "" {
		return fmt.Errorf("SOULMARK_SECRET is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	switch c.RegistryBackend {
	case backendFile:
		if c.RegistryPath == "" {
			return fmt.Errorf("REGISTRY_PATH is required for the file backend")
		}
	case backendS3:
		if c.RegistryS3Bucket == "" {
			return fmt.Errorf("REGISTRY_S3_BUCKET is required for the s3 backend")
		}
	case backendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case backendDynamoDB:
		if c.RegistryDynamoTable == "" {
			return fmt.Errorf("REGISTRY_DYNAMO_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.RegistryBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
