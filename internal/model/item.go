package model

import (
	"errors"
	"fmt"
	"time"
)

// ItemKind — вид содержимого элемента капсулы.
type ItemKind string

const (
	ItemKindText      ItemKind = "text"
	ItemKindImage     ItemKind = "image"
	ItemKindVideo     ItemKind = "video"
	ItemKindAudio     ItemKind = "audio"
	ItemKindGIF       ItemKind = "gif"
	ItemKindMusicLink ItemKind = "music_link"
)

// ErrPayloadMismatch — нагрузка элемента не соответствует его виду
// (инвариант "ровно одно из text/file/url"). Это ошибка целостности
// данных, а не рендеринга.
var ErrPayloadMismatch = errors.New("capsule item payload does not match its kind")

// CapsuleItem — один элемент капсулы. В зависимости от Kind заполнено
// ровно одно из: Text, FileKey, URL (см. Validate). Position уникальна
// внутри капсулы и задаёт порядок рендеринга.
type CapsuleItem struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	CapsuleID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_capsule_item_position"`

	Kind ItemKind `gorm:"type:varchar(20);not null"`

	Text string
	URL  string

	// Файловые виды: ключ в blob-хранилище + метаданные.
	FileKey     string
	ThumbKey    string // миниатюра для видео; в письмо вкладывается она, не само видео
	MimeType    string `gorm:"size:50"`
	SizeInBytes int64

	Position int `gorm:"not null;uniqueIndex:idx_capsule_item_position"`

	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// IsFileBacked — вид хранит содержимое в blob-хранилище.
func (k ItemKind) IsFileBacked() bool {
	switch k {
	case ItemKindImage, ItemKindVideo, ItemKindAudio, ItemKindGIF:
		return true
	}
	return false
}

// Validate проверяет инвариант нагрузки по виду: music_link — только URL,
// text — только текст, файловые виды — только FileKey. Любое расхождение —
// ErrPayloadMismatch с пояснением.
func (it *CapsuleItem) Validate() error {
	switch it.Kind {
	case ItemKindMusicLink:
		if it.URL == "" {
			return fmt.Errorf("%w: music_link item %s has no url", ErrPayloadMismatch, it.ID)
		}
		if it.Text != "" || it.FileKey != "" {
			return fmt.Errorf("%w: music_link item %s carries text or file", ErrPayloadMismatch, it.ID)
		}
	case ItemKindText:
		if it.Text == "" {
			return fmt.Errorf("%w: text item %s has no text", ErrPayloadMismatch, it.ID)
		}
		if it.URL != "" || it.FileKey != "" {
			return fmt.Errorf("%w: text item %s carries url or file", ErrPayloadMismatch, it.ID)
		}
	case ItemKindImage, ItemKindVideo, ItemKindAudio, ItemKindGIF:
		if it.FileKey == "" {
			return fmt.Errorf("%w: %s item %s has no file", ErrPayloadMismatch, it.Kind, it.ID)
		}
		if it.Text != "" || it.URL != "" {
			return fmt.Errorf("%w: %s item %s carries text or url", ErrPayloadMismatch, it.Kind, it.ID)
		}
	default:
		return fmt.Errorf("%w: item %s has unknown kind %q", ErrPayloadMismatch, it.ID, it.Kind)
	}
	return nil
}
