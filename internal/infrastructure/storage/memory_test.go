package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

func TestMemoryStorage_StoreOpenDelete(t *testing.T) {
	ctx := context.Background()
	remover := &fakeRemover{}
	s := NewMemoryStorage(WithRecordRemover(remover))

	obj, err := s.Store(ctx, mediaapp.StoreRequest{
		Category:         media.CategoryImage,
		Subfolder:        media.SubfolderCovers,
		OriginalFileName: "art.webp",
		Body:             strings.NewReader("webp-data"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.URL, "/images/covers/"))
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, 1, s.Len())

	r, ok := s.Open(obj.URL)
	require.True(t, ok)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "webp-data", string(data))

	assert.True(t, s.Delete(ctx, obj.URL))
	assert.False(t, s.Delete(ctx, obj.URL))
	assert.Zero(t, s.Len())
	assert.Equal(t, []string{obj.StoredFileName, obj.StoredFileName}, remover.removed())

	_, ok = s.Open(obj.URL)
	assert.False(t, ok)
}

func TestMemoryStorage_Locate(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	obj, err := s.Store(ctx, mediaapp.StoreRequest{
		Category:         media.CategoryAudio,
		OriginalFileName: "song.mp3",
		Body:             strings.NewReader("id3"),
	})
	require.NoError(t, err)

	loc, err := s.Locate(ctx, obj.URL)
	require.NoError(t, err)
	require.NotNil(t, loc.Body)
	data, err := io.ReadAll(loc.Body)
	require.NoError(t, err)
	assert.Equal(t, "id3", string(data))

	_, err = s.Locate(ctx, "/audio/other.mp3")
	assert.ErrorIs(t, err, media.ErrMediaNotFound)
}

func TestMemoryStorage_Delete_SpecialURLs(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	assert.True(t, s.Delete(ctx, ""))
	assert.True(t, s.Delete(ctx, "http://example.com/a.png"))
	assert.False(t, s.Delete(ctx, "/audio/"))
}

func TestMemoryStorage_Store_InvalidSubfolder(t *testing.T) {
	s := NewMemoryStorage()

	_, err := s.Store(context.Background(), mediaapp.StoreRequest{
		Category:  media.CategoryAudio,
		Subfolder: "a/../../b",
		Body:      strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.True(t, media.IsValidationError(err))
	assert.Zero(t, s.Len())
}

func TestCleanSubfolder(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"/", "", true},
		{"covers", "covers", true},
		{"/avatars/", "avatars", true},
		{"a/b", "a/b", true},
		{"..", "", false},
		{"../x", "", false},
		{"a/./b", "", false},
		{`a\b`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := cleanSubfolder(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStoredFileName(t *testing.T) {
	assert.Regexp(t, `^`+uuidName+`\.mp3$`, newStoredFileName("track.mp3"))
	assert.Regexp(t, `^`+uuidName+`\.PNG$`, newStoredFileName(`C:\Users\me\IMG.PNG`))
	assert.Regexp(t, `^`+uuidName+`$`, newStoredFileName("README"))
	assert.NotEqual(t, newStoredFileName("a.png"), newStoredFileName("a.png"))
}
