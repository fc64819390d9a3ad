package config

import (
	"flag"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	BaseURL     string `env:"BASE_URL"`

	// Публичный адрес сайта — уходит в ссылки внутри писем.
	SiteURL string `env:"SITE_URL"`

	// Blob store
	MediaDir string `env:"MEDIA_DIR"`

	// Mail transport
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
	// Dev-режим: письма пишутся в лог вместо отправки по SMTP.
	MailDevMode bool `env:"MAIL_DEV_MODE"`

	// Delivery scheduler
	DeliveryInterval time.Duration `env:"DELIVERY_INTERVAL"`
	// После скольких неудачных попыток капсула помечается failed
	// и выбывает из доставки. 0 — без ограничения.
	DeliveryMaxAttempts int `env:"DELIVERY_MAX_ATTEMPTS"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "listen address of the server (host:port)")
	flag.StringVar(&cfg.SiteURL, "site-url", cfg.SiteURL, "public site URL used in outgoing emails")
	flag.StringVar(&cfg.MediaDir, "media-dir", cfg.MediaDir, "directory of the file blob store")
	flag.StringVar(&cfg.SMTPHost, "smtp-host", cfg.SMTPHost, "SMTP server host")
	flag.IntVar(&cfg.SMTPPort, "smtp-port", cfg.SMTPPort, "SMTP server port")
	flag.StringVar(&cfg.MailFrom, "mail-from", cfg.MailFrom, "sender address for capsule emails")
	flag.BoolVar(&cfg.MailDevMode, "mail-dev", cfg.MailDevMode, "log emails instead of sending them")
	flag.DurationVar(&cfg.DeliveryInterval, "delivery-interval", cfg.DeliveryInterval, "how often due capsules are delivered")
	flag.IntVar(&cfg.DeliveryMaxAttempts, "delivery-max-attempts", cfg.DeliveryMaxAttempts, "failed attempts before a capsule is marked failed (0 = unlimited)")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8080"
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = "http://" + cfg.BaseURL
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "./media"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "capsules@localhost"
	}
	if cfg.DeliveryInterval <= 0 {
		cfg.DeliveryInterval = time.Minute
	}

	return cfg
}
