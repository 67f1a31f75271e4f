package handler

import (
	"github.com/gin-gonic/gin"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

// EntityMediaHandler serves the media slots of users, tracks and playlists.
// Routes are registered once per entity kind, e.g.
// PUT /api/v1/tracks/:id/media/:field.
type EntityMediaHandler struct {
	BaseHandler
	service *mediaapp.EntityMediaService
}

// NewEntityMediaHandler creates a new EntityMediaHandler
func NewEntityMediaHandler(service *mediaapp.EntityMediaService) *EntityMediaHandler {
	return &EntityMediaHandler{service: service}
}

// AttachURLRequest binds a remotely hosted image to a slot
type AttachURLRequest struct {
	URL string `json:"url" binding:"required,max=2048"`
}

// AttachUploadResponse is returned after a slot upload
type AttachUploadResponse struct {
	Binding mediaapp.BindingResponse     `json:"binding"`
	Media   mediaapp.MediaRecordResponse `json:"media"`
}

func (h *EntityMediaHandler) slotRef(c *gin.Context, entity media.EntityKind) (media.SlotRef, bool) {
	id, ok := h.parseUUIDParam(c, "id", string(entity))
	if !ok {
		return media.SlotRef{}, false
	}
	slot, err := media.ResolveSlot(entity, c.Param("field"))
	if err != nil {
		h.HandleError(c, err)
		return media.SlotRef{}, false
	}
	return media.SlotRef{Slot: slot, EntityID: id}, true
}

// Get godoc
//
//	@Summary	Current media of an entity slot
//	@Tags		entity-media
//	@Param		id		path	string	true	"Entity ID"	format(uuid)
//	@Param		field	path	string	true	"avatar, cover, audio or waveform"
//	@Failure	404	{object}	dto.Response	"Entity not found"
//	@Router		/{entity}/{id}/media/{field} [get]
func (h *EntityMediaHandler) Get(entity media.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := h.slotRef(c, entity)
		if !ok {
			return
		}

		binding, err := h.service.Get(c.Request.Context(), ref)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, binding)
	}
}

// Upload godoc
//
//	@Summary		Upload a file into an entity slot
//	@Description	Replaces the current binding; a previous local file is deleted
//	@Tags			entity-media
//	@Accept			multipart/form-data
//	@Param			file	formData	file	true	"Media file"
//	@Failure		403	{object}	dto.Response	"Not the owner"
//	@Security		BearerAuth
//	@Router			/{entity}/{id}/media/{field} [put]
func (h *EntityMediaHandler) Upload(entity media.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.requireUserID(c)
		if !ok {
			return
		}
		ref, ok := h.slotRef(c, entity)
		if !ok {
			return
		}

		part, ok := h.readFormFile(c)
		if !ok {
			return
		}
		defer part.file.Close()

		binding, record, err := h.service.AttachUpload(c.Request.Context(), ref, userID, mediaapp.SlotUpload{
			OriginalFileName: part.header.Filename,
			MIMEType:         part.mimeType(),
			Size:             part.header.Size,
			Body:             part.file,
		})
		if err != nil {
			h.HandleError(c, err)
			return
		}

		h.Success(c, AttachUploadResponse{Binding: *binding, Media: *record})
	}
}

// AttachURL godoc
//
//	@Summary	Point an image slot at an external URL
//	@Tags		entity-media
//	@Accept		json
//	@Param		request	body	AttachURLRequest	true	"Image URL"
//	@Failure	400	{object}	dto.Response	"Invalid URL or slot takes uploads only"
//	@Security	BearerAuth
//	@Router		/{entity}/{id}/media/{field}/url [put]
func (h *EntityMediaHandler) AttachURL(entity media.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.requireUserID(c)
		if !ok {
			return
		}
		ref, ok := h.slotRef(c, entity)
		if !ok {
			return
		}

		var req AttachURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindError(c, err)
			return
		}

		binding, err := h.service.AttachExternalURL(c.Request.Context(), ref, userID, req.URL)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, binding)
	}
}

// Detach godoc
//
//	@Summary	Clear an entity slot and delete its local file
//	@Tags		entity-media
//	@Security	BearerAuth
//	@Router		/{entity}/{id}/media/{field} [delete]
func (h *EntityMediaHandler) Detach(entity media.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.requireUserID(c)
		if !ok {
			return
		}
		ref, ok := h.slotRef(c, entity)
		if !ok {
			return
		}

		binding, err := h.service.Detach(c.Request.Context(), ref, userID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, binding)
	}
}
