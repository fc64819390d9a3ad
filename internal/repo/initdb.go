package repo

import (
	"TimeCapsule/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB открывает подключение к Postgres и прогоняет миграции моделей.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Capsule{},
		&model.CapsuleItem{},
		&model.DeliveryLog{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
