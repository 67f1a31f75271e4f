package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

type redirectLocator struct {
	target string
}

func (l redirectLocator) Locate(_ context.Context, url string) (*mediaapp.ObjectLocation, error) {
	return &mediaapp.ObjectLocation{RedirectURL: l.target + url}, nil
}

func TestStaticHandler_ServeFromMemory(t *testing.T) {
	env := newMediaTestEnv(t)
	record, err := env.uploads.Upload(context.Background(), mediaapp.UploadInput{
		Category:         media.CategoryImage,
		Subfolder:        media.SubfolderAvatars,
		OwnerID:          uuid.New(),
		OriginalFileName: "me.png",
		MIMEType:         "image/png",
		Size:             3,
		Body:             strings.NewReader("png"),
	})
	require.NoError(t, err)

	h := NewStaticHandler(env.storage)
	r := gin.New()
	r.GET("/images/*filepath", h.Serve("images"))
	r.GET("/avatars/*filepath", h.Serve("images/avatars"))

	t.Run("category root", func(t *testing.T) {
		w := doRequest(r, httptest.NewRequest(http.MethodGet, record.URL, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "png", w.Body.String())
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, staticCacheControl, w.Header().Get("Cache-Control"))
	})

	t.Run("subfolder alias", func(t *testing.T) {
		w := doRequest(r, httptest.NewRequest(http.MethodGet, "/avatars/"+record.StoredFileName, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "png", w.Body.String())
	})

	t.Run("unknown file", func(t *testing.T) {
		w := doRequest(r, httptest.NewRequest(http.MethodGet, "/avatars/nothing.png", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/avatars/x")
		c.Params = gin.Params{{Key: "filepath", Value: "/../../uploads/secret.bin"}}
		h.Serve("images/avatars")(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bare prefix", func(t *testing.T) {
		w := doRequest(r, httptest.NewRequest(http.MethodGet, "/images/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStaticHandler_Redirect(t *testing.T) {
	h := NewStaticHandler(redirectLocator{target: "https://bucket.example.com"})
	r := gin.New()
	r.GET("/audio/*filepath", h.Serve("audio"))

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/audio/song.mp3", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://bucket.example.com/audio/song.mp3", w.Header().Get("Location"))
}
