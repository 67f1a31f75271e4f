package router

import (
	"github.com/gin-gonic/gin"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/interfaces/http/handler"
)

// multipartOverhead is added to file size limits for form boundaries and fields
const multipartOverhead = 1 << 20

// MediaRoutes holds the handlers and guards the media API is built from
type MediaRoutes struct {
	Media       *handler.MediaHandler
	EntityMedia *handler.EntityMediaHandler
	Admin       *handler.MediaAdminHandler
	System      *handler.SystemHandler

	// Auth rejects unauthenticated requests
	Auth gin.HandlerFunc
	// OptionalAuth reads claims when present; used by public reads
	OptionalAuth gin.HandlerFunc
	// AdminOnly runs after Auth on the admin routes
	AdminOnly gin.HandlerFunc
	// AfterAuth runs after Auth or OptionalAuth, once claims are known; may be nil
	AfterAuth gin.HandlerFunc
	// UploadLimit throttles the routes that accept files; may be nil
	UploadLimit gin.HandlerFunc
}

// entityPrefixes maps URL prefixes to the entity kinds whose slots they expose
var entityPrefixes = []struct {
	name   string
	prefix string
	kind   media.EntityKind
}{
	{"users", "/users", media.EntityUser},
	{"tracks", "/tracks", media.EntityTrack},
	{"playlists", "/playlists", media.EntityPlaylist},
}

// Groups builds the route groups to register under the API prefix
func (m MediaRoutes) Groups() []*DomainGroup {
	groups := []*DomainGroup{m.mediaGroup()}
	for _, e := range entityPrefixes {
		groups = append(groups, m.entityGroup(e.name, e.prefix, e.kind))
	}
	if m.Admin != nil {
		groups = append(groups, m.adminGroup())
	}
	if m.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", m.System.GetSystemInfo)
		system.GET("/ping", m.System.Ping)
		groups = append(groups, system)
	}
	return groups
}

// Register adds every media group to the router
func (m MediaRoutes) Register(r *Router) {
	for _, g := range m.Groups() {
		r.Register(g)
	}
}

func (m MediaRoutes) uploadChain(h gin.HandlerFunc) []gin.HandlerFunc {
	if m.UploadLimit == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{m.UploadLimit, h}
}

func (m MediaRoutes) mediaGroup() *DomainGroup {
	g := NewDomainGroup("media", "/media")
	g.GET("/policies", m.Media.Policies)

	authed := g.Group("library", "")
	authed.Use(m.Auth, m.AfterAuth)
	authed.POST("/audio", m.uploadChain(m.Media.UploadAudio)...)
	authed.POST("/images", m.uploadChain(m.Media.UploadImage)...)
	authed.POST("/videos", m.uploadChain(m.Media.UploadVideo)...)
	authed.GET("", m.Media.List)
	authed.GET("/search", m.Media.Search)
	authed.GET("/stats", m.Media.Stats)
	authed.GET("/:id", m.Media.GetByID)
	authed.PATCH("/:id", m.Media.UpdateMetadata)
	authed.DELETE("/:id", m.Media.Delete)
	return g
}

func (m MediaRoutes) entityGroup(name, prefix string, kind media.EntityKind) *DomainGroup {
	g := NewDomainGroup(name, prefix)

	read := g.Group(name+"-read", "")
	if m.OptionalAuth != nil {
		read.Use(m.OptionalAuth, m.AfterAuth)
	}
	read.GET("/:id/media/:field", m.EntityMedia.Get(kind))

	write := g.Group(name+"-write", "")
	write.Use(m.Auth, m.AfterAuth)
	write.PUT("/:id/media/:field", m.uploadChain(m.EntityMedia.Upload(kind))...)
	write.PUT("/:id/media/:field/url", m.EntityMedia.AttachURL(kind))
	write.DELETE("/:id/media/:field", m.EntityMedia.Detach(kind))
	return g
}

func (m MediaRoutes) adminGroup() *DomainGroup {
	g := NewDomainGroup("admin", "/admin/media")
	g.Use(m.Auth, m.AdminOnly, m.AfterAuth)
	g.POST("/sweep", m.Admin.TriggerSweep)
	g.GET("/sweep", m.Admin.SweepStatus)
	return g
}

// UploadBodyLimits returns body limit overrides for the upload routes below
// apiBase. Category endpoints get their policy limit, entity slot routes the
// largest limit of any category.
func UploadBodyLimits(apiBase string, policies media.PolicyTable) map[string]int64 {
	overrides := make(map[string]int64)
	for _, category := range policies.Categories() {
		p, _ := policies.Lookup(category)
		overrides[apiBase+"/media/"+category.URLPrefix()] = p.MaxBytes + multipartOverhead
	}
	largest := policies.MaxUploadBytes() + multipartOverhead
	for _, e := range entityPrefixes {
		overrides[apiBase+e.prefix+"/"] = largest
	}
	return overrides
}
