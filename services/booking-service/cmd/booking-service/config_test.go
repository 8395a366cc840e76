package main

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/barberbook")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("BUSINESS_TIMEZONE", "America/Argentina/Buenos_Aires")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.GRPCPort != "9090" {
		t.Fatalf("unexpected ports %q %q", cfg.Port, cfg.GRPCPort)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.HorizonDays != 7 {
		t.Fatalf("expected 7 day horizon, got %d", cfg.HorizonDays)
	}
	if cfg.Location.String() != "America/Argentina/Buenos_Aires" {
		t.Fatalf("unexpected location %s", cfg.Location)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"missing db":     {"DATABASE_URL": ""},
		"bad timezone":   {"BUSINESS_TIMEZONE": "Mars/Olympus"},
		"bad port":       {"PORT": "0"},
		"bad horizon":    {"NEXT_AVAILABLE_HORIZON_DAYS": "a week"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := loadConfig(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
