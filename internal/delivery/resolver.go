package delivery

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/mail"
	"TimeCapsule/internal/model"
	"context"
	"fmt"
	"io"
	"path"
)

// Resolver достаёт байты вложений из blob-хранилища по ссылкам рендерера.
type Resolver struct {
	blobs blobstore.Store
}

func NewResolver(blobs blobstore.Store) *Resolver {
	return &Resolver{blobs: blobs}
}

// Resolve читает содержимое каждого вложения. Для видео берётся миниатюра
// (ThumbKey), а не сам файл — полное видео в письмо не кладём, оно
// доступно по ссылке. Отсутствующий блоб — ошибка разрешения, она
// валит доставку только этой капсулы.
func (r *Resolver) Resolve(ctx context.Context, refs []AttachmentRef) ([]mail.Attachment, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	atts := make([]mail.Attachment, 0, len(refs))
	for _, ref := range refs {
		key := ref.Item.FileKey
		if ref.Item.Kind == model.ItemKindVideo {
			key = ref.Item.ThumbKey
		}

		rc, info, err := r.blobs.Open(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve item %s: %w", ref.Item.ID, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("resolve item %s: read %q: %w", ref.Item.ID, key, err)
		}

		// Для видео MIME элемента описывает сам ролик, миниатюру
		// определяет хранилище.
		mt := ref.Item.MimeType
		if ref.Item.Kind == model.ItemKindVideo || mt == "" {
			mt = info.MimeType
		}

		atts = append(atts, mail.Attachment{
			ContentID: ref.ContentID,
			Filename:  path.Base(key),
			MimeType:  mt,
			Data:      data,
			Inline:    ref.Inline,
		})
	}
	return atts, nil
}
