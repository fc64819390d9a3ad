package blobstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// FSStore — файловая реализация Store: блобы лежат под корневым каталогом,
// ключ — относительный путь внутри него.
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

// NewFSStore создаёт хранилище с корнем root (каталог создаётся при необходимости).
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// path превращает ключ в путь под корнем и отсекает выход из него.
func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("blobstore: bad key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FSStore) Save(ctx context.Context, key string, r io.Reader) (Info, error) {
	p, err := s.path(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Info{}, fmt.Errorf("blobstore: mkdir for %q: %w", key, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return Info{}, fmt.Errorf("blobstore: create %q: %w", key, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return Info{}, fmt.Errorf("blobstore: write %q: %w", key, err)
	}
	return Info{MimeType: mimeByKey(key), Size: n}, nil
}

func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, Info{}, fmt.Errorf("blobstore: %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, Info{}, fmt.Errorf("blobstore: open %q: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, fmt.Errorf("blobstore: stat %q: %w", key, err)
	}
	return f, Info{MimeType: mimeByKey(key), Size: st.Size()}, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: delete %q: %w", key, err)
	}
	return nil
}

func mimeByKey(key string) string {
	ct := mime.TypeByExtension(filepath.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}
