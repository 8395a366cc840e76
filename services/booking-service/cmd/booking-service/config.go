package main

import (
	"fmt"
	"time"

	"github.com/barberbook/barberbook/libs/config"
	"github.com/barberbook/barberbook/libs/kafkax"
	"github.com/barberbook/barberbook/services/booking-service/internal/availability"
)

type appConfig struct {
	Service     string
	Port        string
	GRPCPort    string
	DatabaseURL string
	LogLevel    string
	Migrate     bool

	JWTSecret string
	TokenTTL  time.Duration

	Location    *time.Location
	HorizonDays int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RatePerMinute int
	RateFailOpen  bool

	KafkaBrokers []string

	CORSOrigins    []string
	BodyLimitBytes int
	RequestTimeout time.Duration
}

func loadConfig() (appConfig, error) {
	if err := config.Load(); err != nil {
		return appConfig{}, err
	}

	cfg := appConfig{
		Service:       config.String("SERVICE_NAME", "booking-service"),
		LogLevel:      config.String("LOG_LEVEL", "info"),
		RedisAddr:     config.String("REDIS_ADDR", ""),
		RedisPassword: config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:  kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")),
		CORSOrigins:   config.List("CORS_ALLOWED_ORIGINS", nil),
	}

	var err error
	if cfg.Port, err = config.Port("PORT", "8080"); err != nil {
		return appConfig{}, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return appConfig{}, err
	}
	if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return appConfig{}, err
	}
	if cfg.JWTSecret, err = config.RequiredString("JWT_SECRET"); err != nil {
		return appConfig{}, err
	}
	if cfg.TokenTTL, err = config.Duration("TOKEN_TTL", 24*time.Hour); err != nil {
		return appConfig{}, err
	}
	if cfg.Migrate, err = config.Bool("MIGRATE_ON_START", false); err != nil {
		return appConfig{}, err
	}
	if cfg.HorizonDays, err = config.Int("NEXT_AVAILABLE_HORIZON_DAYS", availability.DefaultHorizonDays); err != nil {
		return appConfig{}, err
	}
	if cfg.RedisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return appConfig{}, err
	}
	if cfg.RatePerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return appConfig{}, err
	}
	if cfg.RateFailOpen, err = config.Bool("RATE_LIMIT_FAIL_OPEN", true); err != nil {
		return appConfig{}, err
	}
	if cfg.BodyLimitBytes, err = config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20); err != nil {
		return appConfig{}, err
	}
	if cfg.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT_SECONDS", 15*time.Second); err != nil {
		return appConfig{}, err
	}

	// The shop's wall clock decides what "today" is for bookings.
	tz := config.String("BUSINESS_TIMEZONE", "Local")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return appConfig{}, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}
	return cfg, nil
}
