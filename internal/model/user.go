package model

import "time"

// User — владелец капсул. Email уникален: на него по умолчанию
// уходит доставка капсулы, если delivery_email не задан явно.
type User struct {
	ID    int64  `gorm:"primaryKey"`
	Login string `gorm:"not null;uniqueIndex"`
	Email string `gorm:"not null;uniqueIndex"`

	PasswordHash []byte `gorm:"not null"`

	Timezone string `gorm:"size:20"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
