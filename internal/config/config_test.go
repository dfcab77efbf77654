package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.EndpointCacheTTL != 30*time.Second {
		t.Errorf("expected 30s cache TTL, got %s", cfg.EndpointCacheTTL)
	}
	if !cfg.PhoneRepairUSMisdetect {
		t.Error("expected +1 misdetect repair enabled by default")
	}
	if cfg.PhoneCandidateMinChars != 8 || cfg.PhoneCandidateMaxChars != 20 {
		t.Errorf("unexpected phone candidate char window: %d-%d", cfg.PhoneCandidateMinChars, cfg.PhoneCandidateMaxChars)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENDPOINT_CACHE_TTL", "2m")
	t.Setenv("PHONE_REPAIR_US_MISDETECT", "false")
	t.Setenv("PHONE_CANDIDATE_MAX_DIGITS", "12")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.EndpointCacheTTL != 2*time.Minute {
		t.Errorf("expected 2m cache TTL, got %s", cfg.EndpointCacheTTL)
	}
	if cfg.PhoneRepairUSMisdetect {
		t.Error("expected repair disabled")
	}
	if cfg.PhoneCandidateMaxDigit != 12 {
		t.Errorf("expected max digits 12, got %d", cfg.PhoneCandidateMaxDigit)
	}
}

func TestAuditLogDBFallsBackToPrimary(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://primary")

	cfg := Load()

	if cfg.AuditLogDBURL != "postgres://primary" {
		t.Errorf("expected audit DB to fall back to primary, got %s", cfg.AuditLogDBURL)
	}
}
