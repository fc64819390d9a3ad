// Команда sendcapsules находит все созревшие капсулы и отправляет их
// одним прогоном. Аналог периодического запуска внутри сервера, но для
// внешнего планировщика (cron) или ручного запуска.
package main

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/config"
	"TimeCapsule/internal/delivery"
	"TimeCapsule/internal/mail"
	"TimeCapsule/internal/repo"
	"context"
	"os"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	blobs, err := blobstore.NewFSStore(cfg.MediaDir)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "error", err)
	}

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

	capsuleRepo := repo.NewCapsuleRepository(gormDB)
	runner := delivery.NewRunner(
		capsuleRepo,
		delivery.NewRenderer(cfg.SiteURL),
		delivery.NewResolver(blobs),
		transport,
		cfg.MailFrom,
		cfg.DeliveryMaxAttempts,
		sugar,
	)

	sugar.Infow("starting capsule delivery run")
	outcomes, err := runner.RunDue(context.Background())
	if err != nil {
		sugar.Errorw("delivery run failed", "error", err)
		os.Exit(1)
	}

	sent, failed := 0, 0
	for _, o := range outcomes {
		if o.Err == nil {
			sent++
		} else {
			failed++
		}
	}
	sugar.Infow("capsule delivery run finished", "sent", sent, "failed", failed)
}
