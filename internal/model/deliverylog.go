package model

import "time"

// DeliveryResult — исход одной попытки доставки.
type DeliveryResult string

const (
	DeliveryResultSent   DeliveryResult = "sent"
	DeliveryResultFailed DeliveryResult = "failed"
)

// DeliveryLog — журнал попыток доставки, только добавление.
// Одна строка на одну попытку; пайплайн никогда не правит и не удаляет их.
type DeliveryLog struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	CapsuleID string `gorm:"type:uuid;not null;index"`

	AttemptedAt time.Time      `gorm:"not null"`
	Result      DeliveryResult `gorm:"type:varchar(10);not null"`
}
