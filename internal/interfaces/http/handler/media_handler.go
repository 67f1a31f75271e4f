package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
)

// MediaHandler handles the media library endpoints: uploads per category,
// listing, search, usage stats, metadata updates and deletion.
type MediaHandler struct {
	BaseHandler
	files   *mediaapp.MediaFileService
	uploads *mediaapp.UploadService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(files *mediaapp.MediaFileService, uploads *mediaapp.UploadService) *MediaHandler {
	return &MediaHandler{
		files:   files,
		uploads: uploads,
	}
}

// PolicyResponse describes what one category accepts
type PolicyResponse struct {
	Category          media.Category `json:"category"`
	AllowedMIMETypes  []string       `json:"allowed_mime_types"`
	AllowedExtensions []string       `json:"allowed_extensions"`
	MaxBytes          int64          `json:"max_bytes"`
	MaxSize           string         `json:"max_size"`
}

// formFile is an uploaded multipart part ready to hand to the services
type formFile struct {
	header *multipart.FileHeader
	file   multipart.File
}

func (f formFile) mimeType() string {
	return strings.TrimSpace(f.header.Header.Get("Content-Type"))
}

// readFormFile pulls the "file" part out of a multipart request. The caller
// must close the returned file.
func (h *BaseHandler) readFormFile(c *gin.Context) (*formFile, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			h.RequestTooLarge(c, "Request body exceeds maximum allowed size")
			return nil, false
		}
		h.BadRequest(c, "Missing file: send the upload as multipart field 'file'")
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, media.NewStorageIOError("Failed to read uploaded file", err))
		return nil, false
	}
	return &formFile{header: header, file: file}, true
}

// UploadAudio godoc
//
//	@Summary	Upload an audio file
//	@Tags		media
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file		formData	file	true	"Audio file"
//	@Param		subfolder	formData	string	false	"Optional subfolder"
//	@Success	201	{object}	dto.Response
//	@Failure	400	{object}	dto.Response	"Unsupported type or size"
//	@Failure	413	{object}	dto.Response
//	@Failure	500	{object}	dto.Response	"Storage failure"
//	@Security	BearerAuth
//	@Router		/media/audio [post]
func (h *MediaHandler) UploadAudio(c *gin.Context) {
	h.upload(c, media.CategoryAudio)
}

// UploadImage godoc
//
//	@Summary	Upload an image
//	@Tags		media
//	@Router		/media/images [post]
func (h *MediaHandler) UploadImage(c *gin.Context) {
	h.upload(c, media.CategoryImage)
}

// UploadVideo godoc
//
//	@Summary	Upload a video
//	@Tags		media
//	@Router		/media/videos [post]
func (h *MediaHandler) UploadVideo(c *gin.Context) {
	h.upload(c, media.CategoryVideo)
}

func (h *MediaHandler) upload(c *gin.Context, category media.Category) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	part, ok := h.readFormFile(c)
	if !ok {
		return
	}
	defer part.file.Close()

	record, err := h.uploads.Upload(c.Request.Context(), mediaapp.UploadInput{
		Category:         category,
		Subfolder:        c.PostForm("subfolder"),
		OwnerID:          userID,
		OriginalFileName: part.header.Filename,
		MIMEType:         part.mimeType(),
		Size:             part.header.Size,
		Body:             part.file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, mediaapp.ToMediaRecordResponse(record))
}

// Policies godoc
//
//	@Summary		List upload policies
//	@Description	Allowed MIME types, extensions and size limits per category
//	@Tags			media
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/media/policies [get]
func (h *MediaHandler) Policies(c *gin.Context) {
	table := h.uploads.Policies()
	out := make([]PolicyResponse, 0, len(table))
	for _, category := range table.Categories() {
		p, _ := table.Lookup(category)
		out = append(out, PolicyResponse{
			Category:          category,
			AllowedMIMETypes:  p.AllowedMIMETypes,
			AllowedExtensions: p.AllowedExtensions,
			MaxBytes:          p.MaxBytes,
			MaxSize:           media.FormatByteSize(p.MaxBytes),
		})
	}
	h.Success(c, out)
}

// List godoc
//
//	@Summary	List the caller's media
//	@Tags		media
//	@Produce	json
//	@Param		category	query	string	false	"AUDIO, IMAGE or VIDEO"
//	@Param		page		query	int		false	"Page number"		default(1)
//	@Param		page_size	query	int		false	"Items per page"	default(20)
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var filter mediaapp.MediaListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindError(c, err)
		return
	}

	page, err := h.files.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Search godoc
//
//	@Summary	Search the caller's media by original file name
//	@Tags		media
//	@Param		q	query	string	true	"Case-insensitive substring"
//	@Security	BearerAuth
//	@Router		/media/search [get]
func (h *MediaHandler) Search(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var filter mediaapp.MediaSearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindError(c, err)
		return
	}

	page, err := h.files.Search(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Stats godoc
//
//	@Summary	Storage used by the caller, per category
//	@Tags		media
//	@Security	BearerAuth
//	@Router		/media/stats [get]
func (h *MediaHandler) Stats(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	usage, err := h.files.Stats(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, usage)
}

// GetByID godoc
//
//	@Summary	Get a media file
//	@Tags		media
//	@Param		id	path	string	true	"Media ID"	format(uuid)
//	@Failure	404	{object}	dto.Response
//	@Router		/media/{id} [get]
func (h *MediaHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "media")
	if !ok {
		return
	}

	record, err := h.files.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// UpdateMetadata godoc
//
//	@Summary	Update descriptive metadata of a media file
//	@Tags		media
//	@Accept		json
//	@Param		id		path	string							true	"Media ID"	format(uuid)
//	@Param		request	body	mediaapp.UpdateMetadataRequest	true	"Metadata"
//	@Failure	403	{object}	dto.Response	"Not the owner"
//	@Security	BearerAuth
//	@Router		/media/{id} [patch]
func (h *MediaHandler) UpdateMetadata(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "media")
	if !ok {
		return
	}

	var req mediaapp.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	record, err := h.files.UpdateMetadata(c.Request.Context(), id, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Delete godoc
//
//	@Summary	Delete a media file and its stored bytes
//	@Tags		media
//	@Param		id	path	string	true	"Media ID"	format(uuid)
//	@Success	204
//	@Failure	403	{object}	dto.Response	"Not the owner"
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/media/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id", "media")
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), id, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
