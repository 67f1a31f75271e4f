package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uv/backend/internal/domain/media"
	"go.uber.org/zap/zaptest"
)

func TestBinder_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("local to local deletes the old file", func(t *testing.T) {
		storage := newFakeStorage()
		storage.put("/images/covers/old.png", "old")
		binder := NewBinder(storage, zaptest.NewLogger(t))

		current := media.NewLocalBinding("/images/covers/old.png", "old.png", "image/png", 3)
		next := media.NewLocalBinding("/images/covers/new.png", "new.png", "image/png", 5)

		active := binder.Replace(ctx, current, next)

		assert.Equal(t, next, active)
		assert.False(t, storage.has("/images/covers/old.png"))
	})

	t.Run("local to external deletes the old file", func(t *testing.T) {
		storage := newFakeStorage()
		storage.put("/images/avatars/old.png", "old")
		binder := NewBinder(storage, nil)

		current := media.NewLocalBinding("/images/avatars/old.png", "old.png", "image/png", 3)
		next, err := binder.BindExternalURL("https://cdn.example.com/photo.jpg")
		require.NoError(t, err)

		active := binder.Replace(ctx, current, next)
		assert.Equal(t, media.BindingExternal, active.State())
		assert.False(t, storage.has("/images/avatars/old.png"))
	})

	t.Run("external current is never deleted", func(t *testing.T) {
		storage := new(MockStorageBackend)
		binder := NewBinder(storage, nil)

		current, err := binder.BindExternalURL("https://cdn.example.com/photo.jpg")
		require.NoError(t, err)
		next := media.NewLocalBinding("/images/covers/new.png", "new.png", "image/png", 5)

		active := binder.Replace(ctx, current, next)
		assert.Equal(t, next, active)
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("failed delete does not block the replace", func(t *testing.T) {
		storage := new(MockStorageBackend)
		storage.On("Delete", ctx, "/audio/old.mp3").Return(false)
		binder := NewBinder(storage, zaptest.NewLogger(t))

		current := media.NewLocalBinding("/audio/old.mp3", "old.mp3", "audio/mpeg", 3)
		next := media.NewLocalBinding("/audio/new.mp3", "new.mp3", "audio/mpeg", 9)

		active := binder.Replace(ctx, current, next)
		assert.Equal(t, next, active)
		storage.AssertExpectations(t)
	})

	t.Run("empty current needs no cleanup", func(t *testing.T) {
		storage := new(MockStorageBackend)
		binder := NewBinder(storage, nil)
		next := media.NewLocalBinding("/audio/new.mp3", "new.mp3", "audio/mpeg", 9)

		assert.Equal(t, next, binder.Replace(ctx, media.EmptyBinding(), next))
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestBinder_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("local binding is deleted and emptied", func(t *testing.T) {
		storage := newFakeStorage()
		storage.put("/images/covers/c.png", "c")
		binder := NewBinder(storage, nil)

		cleared := binder.Clear(ctx, media.NewLocalBinding("/images/covers/c.png", "c.png", "image/png", 1))

		assert.True(t, cleared.IsEmpty())
		assert.Nil(t, cleared.URL)
		assert.Nil(t, cleared.FileName)
		assert.Nil(t, cleared.MIMEType)
		assert.Nil(t, cleared.ByteSize)
		assert.False(t, storage.has("/images/covers/c.png"))
	})

	t.Run("external binding is emptied without deleting", func(t *testing.T) {
		storage := new(MockStorageBackend)
		binder := NewBinder(storage, nil)
		current, err := binder.BindExternalURL("https://example.com/images/1")
		require.NoError(t, err)

		assert.True(t, binder.Clear(ctx, current).IsEmpty())
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestBinder_BindExternalURL(t *testing.T) {
	binder := NewBinder(newFakeStorage(), nil)

	b, err := binder.BindExternalURL("https://cdn.example.com/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photo.jpg", b.URLValue())

	_, err = binder.BindExternalURL("ftp://x/y")
	assert.ErrorIs(t, err, media.ErrInvalidImageURL)
}
