package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	t.Setenv("DATABASE_URI", "")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("SITE_URL", "")
	t.Setenv("MEDIA_DIR", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("MAIL_FROM", "")
	t.Setenv("DELIVERY_INTERVAL", "")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.AuthSecret != "dev-secret-key" {
		t.Fatalf("AuthSecret default expected 'dev-secret-key', got %q", cfg.AuthSecret)
	}
	if cfg.BaseURL != "localhost:8080" {
		t.Fatalf("BaseURL default expected 'localhost:8080', got %q", cfg.BaseURL)
	}
	if cfg.SiteURL != "http://localhost:8080" {
		t.Fatalf("SiteURL default expected 'http://localhost:8080', got %q", cfg.SiteURL)
	}
	if cfg.MediaDir != "./media" {
		t.Fatalf("MediaDir default expected './media', got %q", cfg.MediaDir)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("SMTPPort default expected 587, got %d", cfg.SMTPPort)
	}
	if cfg.MailFrom != "capsules@localhost" {
		t.Fatalf("MailFrom default expected 'capsules@localhost', got %q", cfg.MailFrom)
	}
	if cfg.DeliveryInterval != time.Minute {
		t.Fatalf("DeliveryInterval default expected 1m, got %v", cfg.DeliveryInterval)
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("SITE_URL", "https://capsules.example.com")
	t.Setenv("AUTH_SECRET", "top")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("MAIL_FROM", "memories@example.com")
	t.Setenv("DELIVERY_INTERVAL", "30s")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "5")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "example.com:443" {
		t.Fatalf("BaseURL expected 'example.com:443', got %q", cfg.BaseURL)
	}
	if cfg.SiteURL != "https://capsules.example.com" {
		t.Fatalf("SiteURL expected from env, got %q", cfg.SiteURL)
	}
	if cfg.AuthSecret != "top" {
		t.Fatalf("AuthSecret expected from env 'top', got %q", cfg.AuthSecret)
	}
	if cfg.SMTPHost != "smtp.example.com" || cfg.SMTPPort != 2525 {
		t.Fatalf("SMTP settings expected from env, got %q:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if cfg.DeliveryInterval != 30*time.Second {
		t.Fatalf("DeliveryInterval expected 30s, got %v", cfg.DeliveryInterval)
	}
	if cfg.DeliveryMaxAttempts != 5 {
		t.Fatalf("DeliveryMaxAttempts expected 5, got %d", cfg.DeliveryMaxAttempts)
	}
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:8080
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("SITE_URL", "")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "localhost:8080" {
		t.Fatalf("invalid BASE_URL must fallback to 'localhost:8080', got %q", cfg.BaseURL)
	}
	if cfg.SiteURL != "http://localhost:8080" {
		t.Fatalf("SiteURL must reflect fallback base, got %q", cfg.SiteURL)
	}
}
