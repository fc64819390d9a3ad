package model

import "time"

// CapsuleStatus — состояние капсулы. Переходы только pending→sent
// и pending→failed, обратных нет.
type CapsuleStatus string

const (
	CapsuleStatusPending CapsuleStatus = "pending"
	CapsuleStatusSent    CapsuleStatus = "sent"
	CapsuleStatusFailed  CapsuleStatus = "failed"
)

// Capsule — капсула времени: набор контента, который в назначенную дату
// уходит письмом на delivery_email. DeliveredAt заполнен тогда и только
// тогда, когда Status == sent.
type Capsule struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID int64  `gorm:"not null;index"` // ссылка на users.id

	// Связи. Капсула монопольно владеет своими items и логами доставки.
	Owner *User         `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Items []CapsuleItem `gorm:"foreignKey:CapsuleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Logs  []DeliveryLog `gorm:"foreignKey:CapsuleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Title string `gorm:"not null;size:100"`
	Body  string

	DeliveryEmail string `gorm:"not null"`

	DeliverOn   time.Time `gorm:"not null;index"`
	DeliveredAt *time.Time

	Status CapsuleStatus `gorm:"type:varchar(10);not null;default:pending;index"`

	// Непредсказуемый токен для просмотра капсулы по ссылке из письма.
	ViewToken string `gorm:"type:uuid;not null;uniqueIndex"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
