// Package blobstore — хранилище бинарного содержимого элементов капсул,
// доступ по непрозрачному ключу. Провайдеры взаимозаменяемы; в комплекте
// файловая реализация.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound — блоб с таким ключом отсутствует в хранилище.
var ErrNotFound = errors.New("blob not found")

// Info — метаданные блоба, известные хранилищу.
type Info struct {
	MimeType string
	Size     int64
}

// Store — контракт blob-хранилища.
type Store interface {
	// Save кладёт содержимое под ключ. Ключ — относительный путь,
	// выбирает его вызывающий.
	Save(ctx context.Context, key string, r io.Reader) (Info, error)

	// Open возвращает поток содержимого и метаданные.
	// ErrNotFound, если ключа нет.
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)

	// Delete убирает блоб. Отсутствие ключа не считается ошибкой.
	Delete(ctx context.Context, key string) error
}
