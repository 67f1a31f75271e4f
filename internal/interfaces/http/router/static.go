package router

import (
	"github.com/gin-gonic/gin"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/interfaces/http/handler"
)

// StaticRoute maps a public path prefix to the storage location it reads from
type StaticRoute struct {
	Prefix string
	Base   string
}

// StaticRoutes lists the read-only download routes. The category roots are
// served as-is; the subfolder aliases and the legacy /media and /static
// paths point into the image and upload roots.
func StaticRoutes() []StaticRoute {
	images := media.PrefixImages
	return []StaticRoute{
		{Prefix: "/" + media.PrefixUploads, Base: media.PrefixUploads},
		{Prefix: "/" + media.PrefixAudio, Base: media.PrefixAudio},
		{Prefix: "/" + media.PrefixImages, Base: images},
		{Prefix: "/" + media.PrefixVideos, Base: media.PrefixVideos},
		{Prefix: "/" + media.SubfolderAvatars, Base: images + "/" + media.SubfolderAvatars},
		{Prefix: "/" + media.SubfolderCovers, Base: images + "/" + media.SubfolderCovers},
		{Prefix: "/" + media.SubfolderThumbnails, Base: images + "/" + media.SubfolderThumbnails},
		{Prefix: "/" + media.SubfolderWaveforms, Base: images + "/" + media.SubfolderWaveforms},
		{Prefix: "/media", Base: media.PrefixUploads},
		{Prefix: "/static", Base: media.PrefixUploads},
	}
}

// RegisterStatic mounts the download routes on the engine root
func RegisterStatic(engine *gin.Engine, h *handler.StaticHandler) {
	for _, route := range StaticRoutes() {
		serve := h.Serve(route.Base)
		engine.GET(route.Prefix+"/*filepath", serve)
		engine.HEAD(route.Prefix+"/*filepath", serve)
	}
}
