package main

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/config"
	"TimeCapsule/internal/delivery"
	"TimeCapsule/internal/handlers"
	"TimeCapsule/internal/mail"
	"TimeCapsule/internal/middleware"
	"TimeCapsule/internal/repo"
	"TimeCapsule/internal/service"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	blobs, err := blobstore.NewFSStore(cfg.MediaDir)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	capsuleRepo := repo.NewCapsuleRepository(gormDB)

	userService := service.NewUserService(userRepo)
	capsuleService := service.NewCapsuleService(capsuleRepo, userRepo, blobs, sugar)

	var transport mail.Transport
	if cfg.MailDevMode {
		transport = mail.NewLogTransport(sugar)
	} else {
		transport = mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
	}

	runner := delivery.NewRunner(
		capsuleRepo,
		delivery.NewRenderer(cfg.SiteURL),
		delivery.NewResolver(blobs),
		transport,
		cfg.MailFrom,
		cfg.DeliveryMaxAttempts,
		sugar,
	)

	// Периодический триггер доставки: один прогон за тик.
	go runScheduler(ctx, runner, cfg.DeliveryInterval, sugar)

	h := handlers.NewHandler(userService, capsuleService, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"SiteURL", cfg.SiteURL,
		"MediaDir", cfg.MediaDir,
		"MailDevMode", cfg.MailDevMode,
		"DeliveryInterval", cfg.DeliveryInterval,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}

// runScheduler гоняет RunDue по тикеру до отмены контекста. Сбой записи
// журнала/статуса фатален для прогона, но не для планировщика: следующий
// тик попробует снова.
func runScheduler(ctx context.Context, runner *delivery.Runner, interval time.Duration, sugar *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			outcomes, err := runner.RunDue(ctx)
			if err != nil {
				sugar.Errorw("delivery run failed", "error", err)
			}
			if len(outcomes) > 0 {
				sugar.Infow("delivery run finished", "processed", len(outcomes))
			}
		}
	}
}
