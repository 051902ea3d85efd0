package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devClientURL  = "http://localhost:5173"
	prodClientURL = "https://trip-julien.netlify.app"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env  string
	Port string

	DBDriver    string
	DatabaseURL string

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn int // days

	Email EmailConfig

	StripeSecretKey     string
	StripeWebhookSecret string

	ClientBaseURL string

	RedisAddr string
	RedisPass string
	RedisDB   int

	PublicDir     string
	QueryMaxLimit int
	StatsCacheTTL time.Duration
}

type EmailConfig struct {
	From           string
	FromName       string
	Host           string
	Port           int
	Username       string
	Password       string
	SendGridAPIKey string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads config.env (or CONFIG_FILE) when present, then builds Config from the environment.
func Load() (*Config, error) {
	file := getEnv("CONFIG_FILE", "config.env")
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}

	env := getEnv("NODE_ENV", EnvDevelopment)

	jwtExpires, err := ParseExpiry(getEnv("JWT_EXPIRES_IN", "90d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	statsTTL, err := time.ParseDuration(getEnv("STATS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("STATS_CACHE_TTL: %w", err)
	}

	clientURL := devClientURL
	if env == EnvProduction {
		clientURL = prodClientURL
	}

	cfg := &Config{
		Env:      env,
		Port:     getEnv("PORT", "3000"),
		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: strings.ReplaceAll(
			os.Getenv("DATABASE"), "<PASSWORD>", os.Getenv("DATABASE_PASSWORD")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiresIn:       jwtExpires,
		JWTCookieExpiresIn: getEnvInt("JWT_COOKIE_EXPIRES_IN", 90),
		Email: EmailConfig{
			From:           getEnv("EMAIL_FROM", "hello@trip.dev"),
			FromName:       getEnv("EMAIL_FROM_NAME", "Trip"),
			Host:           os.Getenv("EMAIL_HOST"),
			Port:           getEnvInt("EMAIL_PORT", 587),
			Username:       os.Getenv("EMAIL_USERNAME"),
			Password:       os.Getenv("EMAIL_PASSWORD"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		},
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_CHECKOUT_SECRET"),
		ClientBaseURL:       strings.TrimRight(getEnv("CLIENT_BASE_URL", clientURL), "/"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		PublicDir:           getEnv("PUBLIC_DIR", "public"),
		QueryMaxLimit:       getEnvInt("QUERY_MAX_LIMIT", 0),
		StatsCacheTTL:       statsTTL,
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-only-secret-change-me"
	}
	if cfg.StripeWebhookSecret == "" && cfg.IsProduction() {
		return nil, errors.New("STRIPE_WEBHOOK_CHECKOUT_SECRET is required in production")
	}

	return cfg, nil
}

// ParseExpiry accepts Go durations ("12h") and day counts ("90d").
func ParseExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", v)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
