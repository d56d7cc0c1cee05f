package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/honeynil/BrrowMarketplace/internal/pricing"
)

type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	LogLevel     string
	PostgresDSN  string
	AutoMigrate  bool
	RedisAddr    string
	KafkaBrokers []string
	KafkaGroupID string
	JWTSecret    string
	TokenTTL     time.Duration

	OTLPEndpoint string

	// Zero disables meetup expiry.
	MeetupExpiryWindow time.Duration
	// Zero means offers never expire.
	OfferTTL            time.Duration
	SweepInterval       time.Duration
	VerificationCodeTTL time.Duration
	EarningsCacheTTL    time.Duration

	FeeRate  decimal.Decimal
	FeeFixed decimal.Decimal
	Currency string
}

func (c *Config) Fees() pricing.FeeSchedule {
	return pricing.FeeSchedule{Rate: c.FeeRate, Fixed: c.FeeFixed, Currency: c.Currency}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func getDecimal(key string, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Warn("invalid decimal, using default", "key", key, "value", raw, "default", fallback)
		return decimal.RequireFromString(fallback)
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		PostgresDSN:  getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=brrow sslmode=disable"),
		AutoMigrate:  os.Getenv("DB_AUTO_MIGRATE") == "true",
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKER", "localhost:9092")),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "brrow-marketplace"),
		JWTSecret:    getEnv("JWT_SECRET", "supersecret"),
		TokenTTL:     getDuration("TOKEN_TTL", 24*time.Hour),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		MeetupExpiryWindow:  getDuration("MEETUP_EXPIRY_WINDOW", 0),
		OfferTTL:            getDuration("OFFER_TTL", 0),
		SweepInterval:       getDuration("SWEEP_INTERVAL", time.Minute),
		VerificationCodeTTL: getDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		EarningsCacheTTL:    getDuration("EARNINGS_CACHE_TTL", 5*time.Minute),

		FeeRate:  getDecimal("PROCESSING_FEE_RATE", "0.029"),
		FeeFixed: getDecimal("PROCESSING_FEE_FIXED", "0.30"),
		Currency: getEnv("CURRENCY", "usd"),
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"meetup_expiry_window", cfg.MeetupExpiryWindow,
		"offer_ttl", cfg.OfferTTL,
	)
	return cfg
}
