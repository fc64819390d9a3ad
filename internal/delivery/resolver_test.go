package delivery

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/model"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobs(t *testing.T) *blobstore.FSStore {
	t.Helper()
	s, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestResolver_ImageBytes(t *testing.T) {
	blobs := newTestBlobs(t)
	ctx := context.Background()
	_, err := blobs.Save(ctx, "capsules/c1/i1.png", bytes.NewReader([]byte{0xDE, 0xAD}))
	require.NoError(t, err)

	r := NewResolver(blobs)
	atts, err := r.Resolve(ctx, []AttachmentRef{{
		ContentID: "cid-1",
		Item:      model.CapsuleItem{ID: "i1", Kind: model.ItemKindImage, FileKey: "capsules/c1/i1.png", MimeType: "image/png"},
		Inline:    true,
	}})
	require.NoError(t, err)
	require.Len(t, atts, 1)

	assert.Equal(t, "cid-1", atts[0].ContentID)
	assert.Equal(t, "i1.png", atts[0].Filename)
	assert.Equal(t, "image/png", atts[0].MimeType)
	assert.Equal(t, []byte{0xDE, 0xAD}, atts[0].Data)
	assert.True(t, atts[0].Inline)
}

func TestResolver_VideoResolvesThumbnailNotVideo(t *testing.T) {
	blobs := newTestBlobs(t)
	ctx := context.Background()
	_, err := blobs.Save(ctx, "capsules/c1/i1_thumb.jpg", bytes.NewReader([]byte("thumb")))
	require.NoError(t, err)
	// сам ролик в хранилище намеренно не кладём

	r := NewResolver(blobs)
	atts, err := r.Resolve(ctx, []AttachmentRef{{
		ContentID: "cid-1",
		Item: model.CapsuleItem{
			ID: "i1", Kind: model.ItemKindVideo,
			FileKey: "capsules/c1/i1.mp4", ThumbKey: "capsules/c1/i1_thumb.jpg",
			MimeType: "video/mp4",
		},
		Inline: true,
	}})
	require.NoError(t, err)
	require.Len(t, atts, 1)

	assert.Equal(t, []byte("thumb"), atts[0].Data)
	assert.Equal(t, "i1_thumb.jpg", atts[0].Filename)
	// MIME миниатюры, не ролика
	assert.Equal(t, "image/jpeg", atts[0].MimeType)
}

func TestResolver_MissingBlobIsResolutionError(t *testing.T) {
	r := NewResolver(newTestBlobs(t))

	_, err := r.Resolve(context.Background(), []AttachmentRef{{
		ContentID: "cid-1",
		Item:      model.CapsuleItem{ID: "i1", Kind: model.ItemKindImage, FileKey: "capsules/c1/gone.png"},
		Inline:    true,
	}})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestResolver_NoRefs(t *testing.T) {
	r := NewResolver(newTestBlobs(t))
	atts, err := r.Resolve(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, atts)
}
