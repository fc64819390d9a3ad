package service

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/model"
	"TimeCapsule/internal/repo"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrCapsuleNotFound — капсула не существует или принадлежит другому.
	ErrCapsuleNotFound = errors.New("capsule not found")
	// ErrDeliverOnPast — дата доставки должна быть в будущем.
	ErrDeliverOnPast = errors.New("deliver_on must be in the future")
	// ErrCapsuleSealed — капсула уже доставлена, содержимое не меняется.
	ErrCapsuleSealed = errors.New("capsule is no longer pending")
	// ErrInvalidItem — нагрузка элемента не подходит под его вид.
	ErrInvalidItem = errors.New("invalid capsule item")
	// ErrPositionTaken — запрошенная позиция элемента уже занята.
	ErrPositionTaken = errors.New("item position already taken")
)

// CreateCapsuleInput — данные новой капсулы.
type CreateCapsuleInput struct {
	Title         string
	Body          string
	DeliverOn     time.Time
	DeliveryEmail string // пустой — берём email владельца
}

// AddItemInput — данные нового элемента. File/Thumb читаются только для
// файловых видов.
type AddItemInput struct {
	Kind      model.ItemKind
	Text      string
	URL       string
	File      io.Reader
	Filename  string
	Thumb     io.Reader // миниатюра для видео, опционально
	ThumbName string
	Position  int // <0 — назначить автоматически
}

// CapsuleService — бизнес-логика капсул: создание, наполнение, просмотр.
type CapsuleService struct {
	capsules repo.CapsuleRepository
	users    repo.UserRepository
	blobs    blobstore.Store
	log      *zap.SugaredLogger
}

func NewCapsuleService(capsules repo.CapsuleRepository, users repo.UserRepository, blobs blobstore.Store, log *zap.SugaredLogger) *CapsuleService {
	return &CapsuleService{capsules: capsules, users: users, blobs: blobs, log: log}
}

// Create создаёт pending-капсулу. Адрес доставки по умолчанию — email
// владельца. Токен просмотра — свежий UUID.
func (s *CapsuleService) Create(ctx context.Context, ownerID int64, in CreateCapsuleInput) (*model.Capsule, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	if !in.DeliverOn.After(time.Now()) {
		return nil, ErrDeliverOnPast
	}

	email := in.DeliveryEmail
	if email == "" {
		owner, err := s.users.GetUserByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, ErrCapsuleNotFound
		}
		email = owner.Email
	}

	c := &model.Capsule{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         in.Title,
		Body:          in.Body,
		DeliveryEmail: email,
		DeliverOn:     in.DeliverOn,
		Status:        model.CapsuleStatusPending,
		ViewToken:     uuid.NewString(),
	}
	if err := s.capsules.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Infow("capsule created", "capsule_id", c.ID, "owner_id", ownerID, "deliver_on", c.DeliverOn)
	return c, nil
}

func (s *CapsuleService) List(ctx context.Context, ownerID int64) ([]model.Capsule, error) {
	return s.capsules.ListByOwner(ctx, ownerID)
}

func (s *CapsuleService) Get(ctx context.Context, ownerID int64, id string) (*model.Capsule, error) {
	c, err := s.capsules.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCapsuleNotFound
	}
	return c, nil
}

// GetByViewToken — просмотр по токену из письма, без аутентификации.
func (s *CapsuleService) GetByViewToken(ctx context.Context, token string) (*model.Capsule, error) {
	c, err := s.capsules.GetByViewToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCapsuleNotFound
	}
	return c, nil
}

// Delete удаляет капсулу с элементами и журналом, затем подчищает блобы.
func (s *CapsuleService) Delete(ctx context.Context, ownerID int64, id string) error {
	c, err := s.capsules.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCapsuleNotFound
	}
	if err := s.capsules.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	for i := range c.Items {
		it := &c.Items[i]
		if it.FileKey != "" {
			if err := s.blobs.Delete(ctx, it.FileKey); err != nil {
				s.log.Warnw("failed to delete blob", "key", it.FileKey, "error", err)
			}
		}
		if it.ThumbKey != "" {
			if err := s.blobs.Delete(ctx, it.ThumbKey); err != nil {
				s.log.Warnw("failed to delete blob", "key", it.ThumbKey, "error", err)
			}
		}
	}
	return nil
}

// AddItem добавляет элемент в pending-капсулу. Файловые виды загружаются
// в blob-хранилище; позиция назначается атомарно, если не задана.
func (s *CapsuleService) AddItem(ctx context.Context, ownerID int64, capsuleID string, in AddItemInput) (*model.CapsuleItem, error) {
	c, err := s.capsules.GetByID(ctx, ownerID, capsuleID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCapsuleNotFound
	}
	if c.Status != model.CapsuleStatusPending {
		return nil, ErrCapsuleSealed
	}

	it := &model.CapsuleItem{
		ID:        uuid.NewString(),
		CapsuleID: capsuleID,
		Kind:      in.Kind,
		Text:      in.Text,
		URL:       in.URL,
	}

	if in.Kind.IsFileBacked() {
		if in.File == nil {
			return nil, fmt.Errorf("%w: %s item requires a file", ErrInvalidItem, in.Kind)
		}
		key := blobKey(capsuleID, it.ID, in.Filename)
		info, err := s.blobs.Save(ctx, key, in.File)
		if err != nil {
			return nil, err
		}
		it.FileKey = key
		it.MimeType = info.MimeType
		it.SizeInBytes = info.Size

		if in.Kind == model.ItemKindVideo && in.Thumb != nil {
			thumbKey := blobKey(capsuleID, it.ID+"_thumb", in.ThumbName)
			if _, err := s.blobs.Save(ctx, thumbKey, in.Thumb); err != nil {
				return nil, err
			}
			it.ThumbKey = thumbKey
		}
	}

	// Инвариант нагрузки тот же, что и у пайплайна доставки:
	// лишние или недостающие поля отклоняем сразу.
	if err := it.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidItem, err)
	}

	if err := s.capsules.AddItem(ctx, it, in.Position); err != nil {
		if errors.Is(err, repo.ErrPositionTaken) {
			return nil, ErrPositionTaken
		}
		return nil, err
	}
	s.log.Infow("capsule item added", "capsule_id", capsuleID, "item_id", it.ID, "kind", it.Kind, "position", it.Position)
	return it, nil
}

// Logs — журнал попыток доставки капсулы владельца.
func (s *CapsuleService) Logs(ctx context.Context, ownerID int64, capsuleID string) ([]model.DeliveryLog, error) {
	logs, err := s.capsules.ListLogs(ctx, ownerID, capsuleID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCapsuleNotFound
	}
	return logs, err
}

func blobKey(capsuleID, itemID, filename string) string {
	return "capsules/" + capsuleID + "/" + itemID + path.Ext(filename)
}
