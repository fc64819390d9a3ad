package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_SaveAndOpen(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte{1, 2, 3, 4}
	info, err := s.Save(ctx, "capsules/c1/i1.png", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "image/png", info.MimeType)

	rc, info, err := s.Open(ctx, "capsules/c1/i1.png")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "image/png", info.MimeType)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFSStore_OpenMissing(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open(context.Background(), "capsules/c1/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "/abs.txt", "."} {
		_, err := s.Save(ctx, key, bytes.NewReader([]byte("x")))
		assert.Error(t, err, "key %q", key)
	}
}

func TestFSStore_DeleteIdempotent(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Save(ctx, "a/b.gif", bytes.NewReader([]byte("gif")))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "a/b.gif"))
	// повторное удаление — не ошибка
	require.NoError(t, s.Delete(ctx, "a/b.gif"))

	_, _, err = s.Open(ctx, "a/b.gif")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_UnknownExtensionFallsBack(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	info, err := s.Save(context.Background(), "a/b.weirdext", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", info.MimeType)
}
