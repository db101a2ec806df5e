package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration, resolved once at process start.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Mercado Pago webhook verification and payment lookup.
	MercadoPagoWebhookSecret string
	MercadoPagoAccessToken   string
	MercadoPagoBaseURL       string
	ProviderTimeout          time.Duration

	// Replayed deliveries are rejected from the durable nonce table; the
	// Redis cache only short-circuits the hot path. TTL covers the
	// provider's maximum redelivery horizon.
	RedisAddr      string
	ReplayCacheTTL time.Duration

	BackupDedupeWindow time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "trustcore"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "trustcore"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),

		MercadoPagoWebhookSecret: strings.TrimSpace(getenv("MP_WEBHOOK_SECRET", "")),
		MercadoPagoAccessToken:   strings.TrimSpace(getenv("MP_ACCESS_TOKEN", "")),
		MercadoPagoBaseURL:       strings.TrimRight(getenv("MP_BASE_URL", "https://api.mercadopago.com"), "/"),
		ProviderTimeout:          getenvDuration("PROVIDER_TIMEOUT", 5*time.Second),

		RedisAddr:      strings.TrimSpace(getenv("REDIS_ADDR", "")),
		ReplayCacheTTL: getenvDuration("REPLAY_CACHE_TTL", 36*time.Hour),

		BackupDedupeWindow: getenvDuration("BACKUP_DEDUPE_WINDOW", 10*time.Minute),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
