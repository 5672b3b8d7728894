package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port        string
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	AutoMigrate bool
	SeedData    bool

	Channel      ChannelConfig
	Webhook      WebhookConfig
	Availability AvailabilityConfig

	RedisURL string
	LockTTL  time.Duration
}

type ChannelConfig struct {
	// Name prefixes synthesized webhook event ids.
	Name string
	// SourceName is the internal source recorded for non-direct bookings.
	SourceName string

	APIURL     string
	APIKey     string
	APITimeout time.Duration

	// Placeholder assumptions carried as knobs, not inferred.
	DefaultCurrency string
	DefaultUnits    int
}

type WebhookConfig struct {
	Secret          string
	SignatureHeader string
	PendingGrace    time.Duration
	RecoverOnStart  bool
}

type AvailabilityConfig struct {
	MaxDays int
}

var ErrMissingWebhookSecret = errors.New("CHANNEL_WEBHOOK_SECRET is not set")

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "hotel_db")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("SEED_DATA", false)
	v.SetDefault("CHANNEL_NAME", "beds24")
	v.SetDefault("CHANNEL_SOURCE", "Beds24")
	v.SetDefault("CHANNEL_API_TIMEOUT", "10s")
	v.SetDefault("CHANNEL_SIGNATURE_HEADER", "X-Webhook-Signature")
	v.SetDefault("DEFAULT_CURRENCY", "THB")
	v.SetDefault("DEFAULT_UNITS_PER_BOOKING", 1)
	v.SetDefault("WEBHOOK_PENDING_GRACE", "15m")
	v.SetDefault("WEBHOOK_RECOVER_ON_START", false)
	v.SetDefault("AVAILABILITY_MAX_DAYS", 366)
	v.SetDefault("LOCK_TTL", "30s")
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	if cfg.Webhook.Secret == "" {
		return cfg, ErrMissingWebhookSecret
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	dbURL := strings.TrimSpace(v.GetString("MYSQL_URL"))
	if dbURL == "" {
		dbURL = strings.TrimSpace(v.GetString("DATABASE_URL"))
	}

	return Config{
		Port:        strings.TrimSpace(v.GetString("PORT")),
		LogLevel:    strings.TrimSpace(v.GetString("LOG_LEVEL")),
		CORSOrigins: parseList(v.GetString("CORS_ORIGINS")),
		DatabaseURL: dbURL,
		DBUser:      v.GetString("DB_USER"),
		DBPass:      v.GetString("DB_PASS"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		SeedData:    v.GetBool("SEED_DATA"),
		Channel: ChannelConfig{
			Name:            strings.ToLower(strings.TrimSpace(v.GetString("CHANNEL_NAME"))),
			SourceName:      strings.TrimSpace(v.GetString("CHANNEL_SOURCE")),
			APIURL:          strings.TrimSpace(v.GetString("CHANNEL_API_URL")),
			APIKey:          strings.TrimSpace(v.GetString("CHANNEL_API_KEY")),
			APITimeout:      v.GetDuration("CHANNEL_API_TIMEOUT"),
			DefaultCurrency: strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
			DefaultUnits:    v.GetInt("DEFAULT_UNITS_PER_BOOKING"),
		},
		Webhook: WebhookConfig{
			Secret:          strings.TrimSpace(v.GetString("CHANNEL_WEBHOOK_SECRET")),
			SignatureHeader: strings.TrimSpace(v.GetString("CHANNEL_SIGNATURE_HEADER")),
			PendingGrace:    v.GetDuration("WEBHOOK_PENDING_GRACE"),
			RecoverOnStart:  v.GetBool("WEBHOOK_RECOVER_ON_START"),
		},
		Availability: AvailabilityConfig{
			MaxDays: v.GetInt("AVAILABILITY_MAX_DAYS"),
		},
		RedisURL: strings.TrimSpace(v.GetString("REDIS_URL")),
		LockTTL:  v.GetDuration("LOCK_TTL"),
	}
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
