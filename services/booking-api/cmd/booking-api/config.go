package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type appConfig struct {
	ServiceName string
	Port        string
	LogLevel    string

	StoreDriver   string
	DatabaseURL   string
	AutoMigrate   bool
	KafkaBrokers  []string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
	CookieSecure  bool

	ClientOrigins     []string
	TrustedProxies    []string
	AuthRatePerMinute int
	RateLimitFailOpen bool
	BodyLimitBytes    int64
	RequestTimeout    time.Duration
}

func loadConfig() (appConfig, error) {
	cfg := appConfig{
		ServiceName:   config.String("SERVICE_NAME", "booking-api"),
		LogLevel:      config.String("LOG_LEVEL", "info"),
		StoreDriver:   strings.ToLower(config.String("STORE_DRIVER", driverPostgres)),
		AutoMigrate:   config.Bool("DB_AUTO_MIGRATE", true),
		KafkaBrokers:  kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		RedisAddr:     config.String("REDIS_ADDR", ""),
		RedisPassword: config.String("REDIS_PASSWORD", ""),
		RedisDB:       config.Int("REDIS_DB", 0),

		AccessSecret:  config.String("JWT_ACCESS_SECRET", "dev-access-secret"),
		RefreshSecret: config.String("JWT_REFRESH_SECRET", "dev-refresh-secret"),
		BcryptCost:    config.Int("BCRYPT_COST", 12),
		CookieSecure:  config.Bool("COOKIE_SECURE", false),

		ClientOrigins:     config.List("CLIENT_ORIGIN", "http://localhost:5173"),
		TrustedProxies:    config.List("TRUSTED_PROXIES", ""),
		AuthRatePerMinute: config.Int("AUTH_RATE_LIMIT_PER_MINUTE", 20),
		RateLimitFailOpen: config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		BodyLimitBytes:    int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
		RequestTimeout:    time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	var err error
	if cfg.Port, err = config.Port("PORT", "5000"); err != nil {
		return appConfig{}, err
	}
	if cfg.AccessTTL, err = config.Duration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return appConfig{}, err
	}
	if cfg.RefreshTTL, err = config.Duration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return appConfig{}, err
	}

	switch cfg.StoreDriver {
	case driverPostgres:
		if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return appConfig{}, err
		}
	case driverMemory:
	default:
		return appConfig{}, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", driverPostgres, driverMemory, cfg.StoreDriver)
	}
	if _, err := httpx.NewClientIP(cfg.TrustedProxies); err != nil {
		return appConfig{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return appConfig{}, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}
