package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinding_State(t *testing.T) {
	t.Run("empty binding", func(t *testing.T) {
		b := EmptyBinding()
		assert.Equal(t, BindingEmpty, b.State())
		assert.True(t, b.IsEmpty())
		assert.NoError(t, b.Validate())
	})

	t.Run("local binding", func(t *testing.T) {
		b := NewLocalBinding("/images/covers/a.png", "a.png", "image/png", 42)
		assert.Equal(t, BindingLocal, b.State())
		assert.True(t, b.IsLocal())
		assert.NoError(t, b.Validate())
	})

	t.Run("external binding", func(t *testing.T) {
		b, err := NewExternalImageBinding("https://cdn.example.com/photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, BindingExternal, b.State())
		assert.Nil(t, b.FileName)
		assert.Nil(t, b.ByteSize)
		require.NotNil(t, b.MIMEType)
		assert.Equal(t, ExternalImageMIMEType, *b.MIMEType)
		assert.NoError(t, b.Validate())
	})

	t.Run("details without url violate the pairing rule", func(t *testing.T) {
		name := "orphan.png"
		b := Binding{FileName: &name}
		assert.True(t, b.IsEmpty())
		assert.Error(t, b.Validate())
	})

	t.Run("local url without file details is invalid", func(t *testing.T) {
		url := "/audio/x.mp3"
		b := Binding{URL: &url}
		assert.Error(t, b.Validate())
	})
}

func TestNewExternalImageBinding(t *testing.T) {
	accepted := []string{
		"https://cdn.example.com/photo.jpg",
		"http://example.com/a/b/c.PNG",
		"https://example.com/images/12345",
		"https://example.com/u/picture?id=3",
		"https://example.com/avatar.svg",
	}
	for _, raw := range accepted {
		_, err := NewExternalImageBinding(raw)
		assert.NoError(t, err, raw)
	}

	rejected := []string{
		"ftp://x/y",
		"ftp://x/photo.jpg",
		"https://example.com/document.pdf",
		"not a url",
		"/images/local.png",
		"https:///photo.jpg",
		"",
	}
	for _, raw := range rejected {
		_, err := NewExternalImageBinding(raw)
		require.Error(t, err, raw)
		assert.Equal(t, "Invalid image URL format", err.Error())
		assert.True(t, IsValidationError(err))
	}
}

func TestSlots(t *testing.T) {
	t.Run("every slot has a spec", func(t *testing.T) {
		for _, s := range AllSlots() {
			spec, ok := s.Spec()
			require.True(t, ok, s)
			assert.True(t, spec.Category.IsValid())
			assert.NotEmpty(t, spec.ColumnGroup)
		}
	})

	t.Run("images accept URLs, audio and waveforms are file only", func(t *testing.T) {
		for _, s := range []Slot{SlotUserAvatar, SlotUserCover, SlotTrackCover, SlotPlaylistCover} {
			spec, _ := s.Spec()
			assert.True(t, spec.AllowsURL, s)
		}
		for _, s := range []Slot{SlotTrackAudio, SlotTrackWaveform} {
			spec, _ := s.Spec()
			assert.False(t, spec.AllowsURL, s)
		}
	})

	t.Run("waveforms are stored as images below waveforms", func(t *testing.T) {
		spec, _ := SlotTrackWaveform.Spec()
		assert.Equal(t, CategoryImage, spec.Category)
		assert.Equal(t, SubfolderWaveforms, spec.Subfolder)
	})

	t.Run("ResolveSlot", func(t *testing.T) {
		s, err := ResolveSlot(EntityTrack, "Cover")
		require.NoError(t, err)
		assert.Equal(t, SlotTrackCover, s)

		_, err = ResolveSlot(EntityPlaylist, "audio")
		assert.True(t, IsValidationError(err))
	})
}
