package media

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
)

// ============================================================================
// Request DTOs
// ============================================================================

// UploadInput is one raw upload handed over by the transport layer
type UploadInput struct {
	Category         media.Category
	Subfolder        string
	OwnerID          uuid.UUID
	OriginalFileName string
	MIMEType         string
	Size             int64
	Body             io.Reader
}

// RecordUploadInput carries the fields persisted for a stored file
type RecordUploadInput struct {
	OriginalFileName string
	StoredFileName   string
	URL              string
	MIMEType         string
	ByteSize         int64
	Category         media.Category
	OwnerID          uuid.UUID
}

// MediaListFilter represents filter options for listing an owner's media
type MediaListFilter struct {
	Category string `form:"category" binding:"omitempty,oneof=AUDIO IMAGE VIDEO audio image video"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MediaSearchFilter represents a file name search
type MediaSearchFilter struct {
	Query    string `form:"q" binding:"required,min=1,max=255"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UpdateMetadataRequest updates descriptive attributes of a media file
type UpdateMetadataRequest struct {
	ImageWidth      *int   `json:"image_width" binding:"omitempty,min=0"`
	ImageHeight     *int   `json:"image_height" binding:"omitempty,min=0"`
	DurationSeconds *int   `json:"duration_seconds" binding:"omitempty,min=0"`
	Bitrate         *int   `json:"bitrate" binding:"omitempty,min=0"`
	SampleRate      *int   `json:"sample_rate" binding:"omitempty,min=0"`
	Codec           string `json:"codec" binding:"max=50"`
	Description     string `json:"description" binding:"max=1000"`
	AltText         string `json:"alt_text" binding:"max=255"`
}

// ToMetadata converts the request into domain metadata
func (r UpdateMetadataRequest) ToMetadata() media.Metadata {
	return media.Metadata{
		ImageWidth:      r.ImageWidth,
		ImageHeight:     r.ImageHeight,
		DurationSeconds: r.DurationSeconds,
		Bitrate:         r.Bitrate,
		SampleRate:      r.SampleRate,
		Codec:           r.Codec,
		Description:     r.Description,
		AltText:         r.AltText,
	}
}

// ============================================================================
// Response DTOs
// ============================================================================

// MediaRecordResponse is the API view of a media record
type MediaRecordResponse struct {
	ID               uuid.UUID      `json:"id"`
	OriginalFileName string         `json:"original_file_name"`
	StoredFileName   string         `json:"stored_file_name"`
	URL              string         `json:"url"`
	MIMEType         string         `json:"mime_type"`
	ByteSize         int64          `json:"byte_size"`
	FormattedSize    string         `json:"formatted_size"`
	Category         media.Category `json:"category"`
	OwnerID          uuid.UUID      `json:"owner_id"`
	ImageWidth       *int           `json:"image_width,omitempty"`
	ImageHeight      *int           `json:"image_height,omitempty"`
	DurationSeconds  *int           `json:"duration_seconds,omitempty"`
	Bitrate          *int           `json:"bitrate,omitempty"`
	SampleRate       *int           `json:"sample_rate,omitempty"`
	Codec            string         `json:"codec,omitempty"`
	Description      string         `json:"description,omitempty"`
	AltText          string         `json:"alt_text,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ToMediaRecordResponse converts a domain record to its response DTO
func ToMediaRecordResponse(r *media.MediaRecord) MediaRecordResponse {
	return MediaRecordResponse{
		ID:               r.ID,
		OriginalFileName: r.OriginalFileName,
		StoredFileName:   r.StoredFileName,
		URL:              r.URL,
		MIMEType:         r.MIMEType,
		ByteSize:         r.ByteSize,
		FormattedSize:    r.FormattedSize(),
		Category:         r.Category,
		OwnerID:          r.OwnerID,
		ImageWidth:       r.Metadata.ImageWidth,
		ImageHeight:      r.Metadata.ImageHeight,
		DurationSeconds:  r.Metadata.DurationSeconds,
		Bitrate:          r.Metadata.Bitrate,
		SampleRate:       r.Metadata.SampleRate,
		Codec:            r.Metadata.Codec,
		Description:      r.Metadata.Description,
		AltText:          r.Metadata.AltText,
		CreatedAt:        r.CreatedAt,
	}
}

// ToMediaRecordResponses converts a list of records
func ToMediaRecordResponses(records []*media.MediaRecord) []MediaRecordResponse {
	out := make([]MediaRecordResponse, len(records))
	for i, r := range records {
		out[i] = ToMediaRecordResponse(r)
	}
	return out
}

// BindingResponse is the API view of one entity media slot
type BindingResponse struct {
	Slot     media.Slot         `json:"slot"`
	EntityID uuid.UUID          `json:"entity_id"`
	State    media.BindingState `json:"state"`
	URL      *string            `json:"url"`
	FileName *string            `json:"file_name"`
	MIMEType *string            `json:"mime_type"`
	ByteSize *int64             `json:"byte_size"`
}

// ToBindingResponse converts a slot binding to its response DTO
func ToBindingResponse(ref media.SlotRef, b media.Binding) BindingResponse {
	return BindingResponse{
		Slot:     ref.Slot,
		EntityID: ref.EntityID,
		State:    b.State(),
		URL:      b.URL,
		FileName: b.FileName,
		MIMEType: b.MIMEType,
		ByteSize: b.ByteSize,
	}
}

// SweepResult summarises one orphan sweep run
type SweepResult struct {
	Cutoff       time.Time     `json:"cutoff"`
	Scanned      int           `json:"scanned"`
	FilesDeleted int           `json:"files_deleted"`
	RecordsFreed int           `json:"records_freed"`
	BytesFreed   int64         `json:"bytes_freed"`
	Failed       int           `json:"failed"`
	Duration     time.Duration `json:"duration"`
}
