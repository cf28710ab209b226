package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv         string
	HTTPPort       string
	AllowedOrigins []string
	TrustedProxies []string

	MongoURI      string
	MongoDatabase string

	JWTSecret    string
	JWTSecretARN string
	TokenTTL     time.Duration
	CookieSecure bool

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	AuthRateLimit int

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	MaxUploadBytes int64

	KafkaBrokers []string
	KafkaTopic   string

	ElasticsearchURL   string
	ElasticsearchIndex string

	GSTRate     decimal.Decimal
	HandlingFee decimal.Decimal
	DeliveryFee decimal.Decimal
}

// SecretFetcher resolves a secret value by id.
type SecretFetcher func(ctx context.Context, id string) (string, error)

// Load reads configuration from the environment. When APP_ENV is "local" the
// variables in .env.local are loaded first; when JWT_SECRET_ARN is set the
// token secret is resolved through fetch.
func Load(ctx context.Context, fetch SecretFetcher) (*Config, error) {
	appEnv := getEnv("APP_ENV", "production")
	if appEnv == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			slog.Warn("could not load .env.local, relying on process environment", "error", err)
		}
	}

	cfg := &Config{
		AppEnv:         appEnv,
		HTTPPort:       getEnv("HTTP_PORT", "5000"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", "http://localhost:5173"),
		TrustedProxies: getList("TRUSTED_PROXIES", ""),

		MongoURI:      firstEnv([]string{"MONGO_PUBLIC_URL", "MONGO_URL"}, "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "storefront"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTSecretARN: getEnv("JWT_SECRET_ARN", ""),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		KafkaBrokers: getList("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "storefront-events"),

		ElasticsearchURL:   getEnv("ELASTICSEARCH_URL", ""),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "products"),
	}

	for _, proxy := range cfg.TrustedProxies {
		if !validProxy(proxy) {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", proxy)
		}
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", "60m"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", "30s"); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = getInt("AUTH_RATE_LIMIT", "20"); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", "5242880")
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.GSTRate, err = getDecimal("GST_RATE", "0.18"); err != nil {
		return nil, err
	}
	if cfg.HandlingFee, err = getDecimal("HANDLING_FEE", "10"); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = getDecimal("DELIVERY_FEE", "0"); err != nil {
		return nil, err
	}

	if cfg.JWTSecretARN != "" {
		if fetch == nil {
			return nil, errors.New("JWT_SECRET_ARN set but no secret fetcher configured")
		}
		secret, err := fetch(ctx, cfg.JWTSecretARN)
		if err != nil {
			return nil, fmt.Errorf("resolve jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SECRET or JWT_SECRET_ARN is required")
		}
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = "CLIENT_SECRET_KEY"
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "local" || c.AppEnv == "development"
}

// validProxy accepts an IP address or a CIDR range.
func validProxy(value string) bool {
	if _, _, err := net.ParseCIDR(value); err == nil {
		return true
	}
	return net.ParseIP(value) != nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func firstEnv(keys []string, fallback string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return fallback
}

func getList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}
