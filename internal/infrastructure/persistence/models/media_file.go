package models

import (
	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
)

// MediaFileModel is the persistence model for a MediaRecord.
type MediaFileModel struct {
	BaseModel
	OriginalFileName string         `gorm:"column:original_file_name;type:varchar(255);not null"`
	StoredFileName   string         `gorm:"column:stored_file_name;type:varchar(255);not null;uniqueIndex"`
	URL              string         `gorm:"column:url;type:varchar(500);not null;index"`
	MIMEType         string         `gorm:"column:mime_type;type:varchar(100);not null"`
	ByteSize         int64          `gorm:"column:byte_size;type:bigint;not null"`
	Category         media.Category `gorm:"column:category;type:varchar(10);not null;index"`
	OwnerID          uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	ImageWidth       *int           `gorm:"column:image_width"`
	ImageHeight      *int           `gorm:"column:image_height"`
	DurationSeconds  *int           `gorm:"column:duration_seconds"`
	Bitrate          *int           `gorm:"column:bitrate"`
	SampleRate       *int           `gorm:"column:sample_rate"`
	Codec            string         `gorm:"column:codec;type:varchar(50)"`
	Description      string         `gorm:"column:description;type:text"`
	AltText          string         `gorm:"column:alt_text;type:varchar(255)"`
}

// TableName returns the table name for GORM
func (MediaFileModel) TableName() string {
	return "media_files"
}

// ToDomain converts the persistence model to a domain MediaRecord.
func (m *MediaFileModel) ToDomain() *media.MediaRecord {
	return &media.MediaRecord{
		BaseEntity:       m.BaseModel.ToDomain(),
		OriginalFileName: m.OriginalFileName,
		StoredFileName:   m.StoredFileName,
		URL:              m.URL,
		MIMEType:         m.MIMEType,
		ByteSize:         m.ByteSize,
		Category:         m.Category,
		OwnerID:          m.OwnerID,
		Metadata: media.Metadata{
			ImageWidth:      m.ImageWidth,
			ImageHeight:     m.ImageHeight,
			DurationSeconds: m.DurationSeconds,
			Bitrate:         m.Bitrate,
			SampleRate:      m.SampleRate,
			Codec:           m.Codec,
			Description:     m.Description,
			AltText:         m.AltText,
		},
	}
}

// FromDomain populates the persistence model from a domain MediaRecord.
func (m *MediaFileModel) FromDomain(r *media.MediaRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.OriginalFileName = r.OriginalFileName
	m.StoredFileName = r.StoredFileName
	m.URL = r.URL
	m.MIMEType = r.MIMEType
	m.ByteSize = r.ByteSize
	m.Category = r.Category
	m.OwnerID = r.OwnerID
	m.ImageWidth = r.Metadata.ImageWidth
	m.ImageHeight = r.Metadata.ImageHeight
	m.DurationSeconds = r.Metadata.DurationSeconds
	m.Bitrate = r.Metadata.Bitrate
	m.SampleRate = r.Metadata.SampleRate
	m.Codec = r.Metadata.Codec
	m.Description = r.Metadata.Description
	m.AltText = r.Metadata.AltText
}

// MediaFileModelFromDomain creates a new persistence model from a domain MediaRecord.
func MediaFileModelFromDomain(r *media.MediaRecord) *MediaFileModel {
	m := &MediaFileModel{}
	m.FromDomain(r)
	return m
}
