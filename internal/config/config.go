// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultTokenTTL       = 2 * time.Hour
	defaultRequestTimeout = 10 * time.Second
	defaultBcryptCost     = 10
	minProductionSecret   = 32
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN; empty selects the in-memory user directory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret, or "file:<path>" to read it from a file.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim stamped on and required of every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTTTL is the token lifetime (e.g. "2h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RequestTimeout bounds each gRPC call and bus message (e.g. "10s").
	RequestTimeout string `mapstructure:"REQUEST_TIMEOUT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// Empty disables the bus listener and the auth event producer.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuthRequestTopic is the topic the bus listener consumes requests from.
	AuthRequestTopic string `mapstructure:"AUTH_REQUEST_TOPIC"`
	// KafkaGroupID is the consumer group of the bus listener.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// AuthEventsTopic is the topic auth events are produced to.
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty gives no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Worker-only: Loki URL for the event worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// LokiGroupID is the consumer group ID for the event worker.
	LokiGroupID string `mapstructure:"LOKI_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "auth-ms")
	v.SetDefault("JWT_TTL", "2h")
	v.SetDefault("BCRYPT_COST", defaultBcryptCost)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUTH_REQUEST_TOPIC", "auth-requests")
	v.SetDefault("KAFKA_GROUP_ID", "auth-ms")
	v.SetDefault("AUTH_EVENTS_TOPIC", "auth-events")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("LOKI_GROUP_ID", "auth-events-loki")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.Env == "production" {
		secret := strings.TrimSpace(cfg.JWTSecret)
		if secret == "" {
			return nil, errors.New("config: JWT_SECRET must be set when APP_ENV=production")
		}
		if !strings.HasPrefix(secret, "file:") && len(secret) < minProductionSecret {
			return nil, errors.New("config: JWT_SECRET must be at least 32 bytes when APP_ENV=production")
		}
	}

	return &cfg, nil
}

// TokenTTL parses JWTTTL as a time.Duration. Returns 2h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return defaultTokenTTL
	}
	return d
}

// RequestTimeoutDuration parses RequestTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return defaultRequestTimeout
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means the bus listener and event producer are disabled.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
