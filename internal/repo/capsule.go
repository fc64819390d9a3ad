package repo

import (
	"TimeCapsule/internal/model"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCapsuleNotPending — условное обновление статуса не нашло капсулу
// в состоянии pending (уже sent/failed или удалена).
var ErrCapsuleNotPending = errors.New("capsule is not pending")

// ErrNotFound — капсулы с таким id у этого владельца нет.
var ErrNotFound = errors.New("capsule not found")

// ErrPositionTaken — явная позиция уже занята другим элементом капсулы.
var ErrPositionTaken = errors.New("item position already taken")

// CapsuleRepository — контракт доступа к капсулам для сервиса и пайплайна доставки.
type CapsuleRepository interface {
	Create(ctx context.Context, c *model.Capsule) error

	// GetByID возвращает капсулу владельца с элементами (по позиции) и логами,
	// nil если не найдена.
	GetByID(ctx context.Context, ownerID int64, id string) (*model.Capsule, error)

	// GetByViewToken возвращает капсулу по токену просмотра из письма.
	GetByViewToken(ctx context.Context, token string) (*model.Capsule, error)

	ListByOwner(ctx context.Context, ownerID int64) ([]model.Capsule, error)

	// Delete удаляет капсулу владельца вместе с элементами и логами.
	Delete(ctx context.Context, ownerID int64, id string) error

	// AddItem сохраняет элемент. Если Position не задана (<0), атомарно
	// назначает следующую по капсуле: max(position)+1, первая — 0.
	// Занятая явная позиция — ErrPositionTaken.
	AddItem(ctx context.Context, item *model.CapsuleItem, position int) error

	// FindDue возвращает капсулы с deliver_on <= now и статусом pending,
	// элементы предзагружены в порядке position.
	//
	// При нескольких одновременных раннерах выборку нужно дополнить
	// условным захватом статуса, иначе капсула может быть выбрана дважды.
	FindDue(ctx context.Context, now time.Time) ([]model.Capsule, error)

	// MarkDelivered в одной транзакции переводит pending→sent, ставит
	// delivered_at и добавляет строку журнала sent.
	MarkDelivered(ctx context.Context, capsuleID string, deliveredAt time.Time) error

	// AppendDeliveryLog добавляет строку журнала попытки. Журнал только
	// пополняется, строки никогда не меняются.
	AppendDeliveryLog(ctx context.Context, capsuleID string, result model.DeliveryResult, attemptedAt time.Time) error

	// CountFailedAttempts — число неудачных попыток по капсуле.
	CountFailedAttempts(ctx context.Context, capsuleID string) (int64, error)

	// MarkFailed переводит pending→failed (порог неудачных попыток).
	MarkFailed(ctx context.Context, capsuleID string) error

	// ListLogs возвращает журнал попыток капсулы владельца по времени.
	ListLogs(ctx context.Context, ownerID int64, capsuleID string) ([]model.DeliveryLog, error)
}

type capsuleRepo struct {
	db *gorm.DB
}

// NewCapsuleRepository создаёт реализацию репозитория для Capsule.
func NewCapsuleRepository(db *gorm.DB) CapsuleRepository {
	return &capsuleRepo{db: db}
}

func (r *capsuleRepo) Create(ctx context.Context, c *model.Capsule) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *capsuleRepo) GetByID(ctx context.Context, ownerID int64, id string) (*model.Capsule, error) {
	var c model.Capsule
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *capsuleRepo) GetByViewToken(ctx context.Context, token string) (*model.Capsule, error) {
	var c model.Capsule
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("view_token = ?", token).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *capsuleRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Capsule, error) {
	var cs []model.Capsule
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&cs).Error
	return cs, err
}

func (r *capsuleRepo) Delete(ctx context.Context, ownerID int64, id string) error {
	// Явное каскадное удаление: не полагаемся на FK-констрейнты драйвера.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Capsule{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("capsule_id = ?", id).Delete(&model.CapsuleItem{}).Error; err != nil {
			return err
		}
		return tx.Where("capsule_id = ?", id).Delete(&model.DeliveryLog{}).Error
	})
}

func (r *capsuleRepo) AddItem(ctx context.Context, item *model.CapsuleItem, position int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if position >= 0 {
			// Проверяем занятость сами: нарушение уникального индекса
			// каждый драйвер отдаёт своей ошибкой.
			var n int64
			err := tx.Model(&model.CapsuleItem{}).
				Where("capsule_id = ? AND position = ?", item.CapsuleID, position).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrPositionTaken
			}
			item.Position = position
		} else {
			// max(position)+1 внутри транзакции, чтобы параллельные
			// вставки не получили одну позицию
			var next int
			err := tx.Model(&model.CapsuleItem{}).
				Where("capsule_id = ?", item.CapsuleID).
				Select("COALESCE(MAX(position)+1, 0)").
				Scan(&next).Error
			if err != nil {
				return err
			}
			item.Position = next
		}
		return tx.Create(item).Error
	})
}

func (r *capsuleRepo) FindDue(ctx context.Context, now time.Time) ([]model.Capsule, error) {
	var cs []model.Capsule
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("deliver_on <= ? AND status = ?", now, model.CapsuleStatusPending).
		Order("deliver_on ASC").
		Find(&cs).Error
	return cs, err
}

func (r *capsuleRepo) MarkDelivered(ctx context.Context, capsuleID string, deliveredAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Capsule{}).
			Where("id = ? AND status = ?", capsuleID, model.CapsuleStatusPending).
			Updates(map[string]any{
				"status":       model.CapsuleStatusSent,
				"delivered_at": deliveredAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCapsuleNotPending
		}
		log := &model.DeliveryLog{
			ID:          uuid.NewString(),
			CapsuleID:   capsuleID,
			AttemptedAt: deliveredAt,
			Result:      model.DeliveryResultSent,
		}
		return tx.Create(log).Error
	})
}

func (r *capsuleRepo) AppendDeliveryLog(ctx context.Context, capsuleID string, result model.DeliveryResult, attemptedAt time.Time) error {
	log := &model.DeliveryLog{
		ID:          uuid.NewString(),
		CapsuleID:   capsuleID,
		AttemptedAt: attemptedAt,
		Result:      result,
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *capsuleRepo) CountFailedAttempts(ctx context.Context, capsuleID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DeliveryLog{}).
		Where("capsule_id = ? AND result = ?", capsuleID, model.DeliveryResultFailed).
		Count(&n).Error
	return n, err
}

func (r *capsuleRepo) MarkFailed(ctx context.Context, capsuleID string) error {
	res := r.db.WithContext(ctx).Model(&model.Capsule{}).
		Where("id = ? AND status = ?", capsuleID, model.CapsuleStatusPending).
		Update("status", model.CapsuleStatusFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCapsuleNotPending
	}
	return nil
}

func (r *capsuleRepo) ListLogs(ctx context.Context, ownerID int64, capsuleID string) ([]model.DeliveryLog, error) {
	// Сначала проверяем владение капсулой.
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Capsule{}).
		Where("id = ? AND owner_id = ?", capsuleID, ownerID).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	var logs []model.DeliveryLog
	err = r.db.WithContext(ctx).
		Where("capsule_id = ?", capsuleID).
		Order("attempted_at ASC").
		Find(&logs).Error
	return logs, err
}
