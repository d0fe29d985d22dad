package app

import (
	"os"
	"strconv"
	"time"

	"github.com/saludware/citamed/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens and TOTP label

	SigningKeyFile string // Optional: path to an Ed25519 PKCS8 PEM; empty means ephemeral key
	DatabaseFile   string // Path to the SQLite database file (default: ./citamed.db)
	PepperFile     string // Path to the password-hashing pepper file (default: ./pepper)
	RedisAddr      string // OTP cache address (default: localhost:6379)
	RedisPassword  string // Optional
	RedisDB        int    // Optional

	AccessTokenTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 7d)
	EmailCodeTTL    time.Duration // Email code lifetime (default: 5m)
	TOTPSkew        int           // Accepted periods either side of now (default: 1)

	MailTransport        string // "log" or "postmark" (default: log)
	PostmarkServerToken  string
	PostmarkAccountToken string
	PostmarkSender       string

	Env                  string // dev, staging, prod (default: dev)
	LogLevel             string // debug, info, warn, error (default: info)
	LogFormat            string // json, text (default: json)
	Port                 int    // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration // Ledger flag reconciliation interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "citamed-auth"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "citamed.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		EmailCodeTTL:    getEnvDurationOrDefault("AUTH_EMAIL_CODE_TTL", 5*time.Minute),
		TOTPSkew:        getEnvIntOrDefault("AUTH_TOTP_SKEW", 1),

		MailTransport:        getEnvOrDefault("MAIL_TRANSPORT", "log"),
		PostmarkServerToken:  os.Getenv("POSTMARK_SERVER_TOKEN"),
		PostmarkAccountToken: os.Getenv("POSTMARK_ACCOUNT_TOKEN"),
		PostmarkSender:       os.Getenv("POSTMARK_SENDER_EMAIL"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
