package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	mediaapp "github.com/uv/backend/internal/application/media"
)

// staticCacheControl applies to served media; stored names are random and never reused
const staticCacheControl = "public, max-age=86400"

// StaticHandler serves stored media files read-only under their public URLs
type StaticHandler struct {
	BaseHandler
	locator mediaapp.ObjectLocator
}

// NewStaticHandler creates a new StaticHandler
func NewStaticHandler(locator mediaapp.ObjectLocator) *StaticHandler {
	return &StaticHandler{locator: locator}
}

// Serve returns a handler for routes registered as <prefix>/*filepath. The
// requested name is looked up below base, so /avatars/a.png with base
// "images/avatars" resolves /images/avatars/a.png.
func (h *StaticHandler) Serve(base string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filepath"), "/")
		if name == "" || path.Clean("/"+name) != "/"+name {
			h.NotFound(c, "File not found")
			return
		}

		loc, err := h.locator.Locate(c.Request.Context(), "/"+base+"/"+name)
		if err != nil {
			h.HandleError(c, err)
			return
		}

		switch {
		case loc.RedirectURL != "":
			c.Redirect(http.StatusFound, loc.RedirectURL)
		case loc.FilePath != "":
			c.Header("Cache-Control", staticCacheControl)
			c.File(loc.FilePath)
		default:
			c.Header("Cache-Control", staticCacheControl)
			http.ServeContent(c.Writer, c.Request, path.Base(name), loc.ModTime, loc.Body)
		}
	}
}
