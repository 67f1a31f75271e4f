package media

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/shared"
)

// Metadata holds the optional descriptive attributes of a stored file
type Metadata struct {
	ImageWidth      *int
	ImageHeight     *int
	DurationSeconds *int
	Bitrate         *int
	SampleRate      *int
	Codec           string
	Description     string
	AltText         string
}

// MediaRecord is the registry row for one physically stored file
type MediaRecord struct {
	shared.BaseEntity
	OriginalFileName string
	StoredFileName   string
	URL              string
	MIMEType         string
	ByteSize         int64
	Category         Category
	OwnerID          uuid.UUID
	Metadata         Metadata
}

// NewMediaRecordInput carries the fields of a freshly stored file
type NewMediaRecordInput struct {
	OriginalFileName string
	StoredFileName   string
	URL              string
	MIMEType         string
	ByteSize         int64
	Category         Category
	OwnerID          uuid.UUID
}

// NewMediaRecord creates a record for a file that has just been stored
func NewMediaRecord(in NewMediaRecordInput) (*MediaRecord, error) {
	if !in.Category.IsValid() {
		return nil, NewValidationError("Unsupported media category")
	}
	if strings.TrimSpace(in.StoredFileName) == "" {
		return nil, NewValidationError("Stored file name cannot be empty")
	}
	if strings.TrimSpace(in.URL) == "" {
		return nil, NewValidationError("Media URL cannot be empty")
	}
	if StoredFileNameFromURL(in.URL) != in.StoredFileName {
		return nil, NewValidationError("Media URL does not match stored file name")
	}
	if in.ByteSize <= 0 {
		return nil, NewValidationError("File is empty")
	}
	if in.OwnerID == uuid.Nil {
		return nil, NewValidationError("Owner ID cannot be empty")
	}

	return &MediaRecord{
		BaseEntity:       shared.NewBaseEntity(),
		OriginalFileName: in.OriginalFileName,
		StoredFileName:   in.StoredFileName,
		URL:              in.URL,
		MIMEType:         strings.ToLower(in.MIMEType),
		ByteSize:         in.ByteSize,
		Category:         in.Category,
		OwnerID:          in.OwnerID,
	}, nil
}

// IsOwnedBy reports whether the given user uploaded this file
func (r *MediaRecord) IsOwnedBy(userID uuid.UUID) bool {
	return r.OwnerID == userID
}

// CheckOwner returns ErrNotOwner unless userID owns the record
func (r *MediaRecord) CheckOwner(userID uuid.UUID) error {
	if !r.IsOwnedBy(userID) {
		return ErrNotOwner
	}
	return nil
}

// UpdateMetadata replaces the descriptive attributes
func (r *MediaRecord) UpdateMetadata(meta Metadata) error {
	for _, v := range []*int{meta.ImageWidth, meta.ImageHeight, meta.DurationSeconds, meta.Bitrate, meta.SampleRate} {
		if v != nil && *v < 0 {
			return NewValidationError("Media metadata values cannot be negative")
		}
	}
	if len(meta.Description) > 1000 {
		return NewValidationError("Description cannot exceed 1000 characters")
	}
	if len(meta.AltText) > 255 {
		return NewValidationError("Alt text cannot exceed 255 characters")
	}
	r.Metadata = meta
	r.Touch()
	return nil
}

// IsImage returns true if the record is an image
func (r *MediaRecord) IsImage() bool {
	return r.Category == CategoryImage
}

// IsAudio returns true if the record is an audio file
func (r *MediaRecord) IsAudio() bool {
	return r.Category == CategoryAudio
}

// IsVideo returns true if the record is a video
func (r *MediaRecord) IsVideo() bool {
	return r.Category == CategoryVideo
}

// FormattedSize returns the byte size in human-readable form
func (r *MediaRecord) FormattedSize() string {
	return FormatByteSize(r.ByteSize)
}

// CreatedBefore reports whether the record predates the cutoff
func (r *MediaRecord) CreatedBefore(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}
