package models

import (
	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
)

// MediaBindingColumns is the four-column group an entity row uses to point
// at one media object. Embedded with a prefix such as "avatar_".
type MediaBindingColumns struct {
	URL      *string `gorm:"column:url;type:varchar(500)"`
	FileName *string `gorm:"column:file_name;type:varchar(255)"`
	MIMEType *string `gorm:"column:mime_type;type:varchar(100)"`
	ByteSize *int64  `gorm:"column:byte_size;type:bigint"`
}

// ToDomain converts the column group to a domain Binding
func (c MediaBindingColumns) ToDomain() media.Binding {
	return media.Binding{
		URL:      c.URL,
		FileName: c.FileName,
		MIMEType: c.MIMEType,
		ByteSize: c.ByteSize,
	}
}

// MediaBindingColumnsFromDomain creates the column group from a domain Binding
func MediaBindingColumnsFromDomain(b media.Binding) MediaBindingColumns {
	return MediaBindingColumns{
		URL:      b.URL,
		FileName: b.FileName,
		MIMEType: b.MIMEType,
		ByteSize: b.ByteSize,
	}
}

// UserModel is the media-facing projection of the users table.
type UserModel struct {
	BaseModel
	Username    string              `gorm:"column:username;type:varchar(50);not null;uniqueIndex"`
	DisplayName string              `gorm:"column:display_name;type:varchar(100)"`
	Avatar      MediaBindingColumns `gorm:"embedded;embeddedPrefix:avatar_"`
	CoverImage  MediaBindingColumns `gorm:"embedded;embeddedPrefix:cover_image_"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// TrackModel is the media-facing projection of the tracks table.
type TrackModel struct {
	BaseModel
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Title      string              `gorm:"column:title;type:varchar(200);not null"`
	Audio      MediaBindingColumns `gorm:"embedded;embeddedPrefix:audio_"`
	CoverImage MediaBindingColumns `gorm:"embedded;embeddedPrefix:cover_image_"`
	Waveform   MediaBindingColumns `gorm:"embedded;embeddedPrefix:waveform_"`
}

// TableName returns the table name for GORM
func (TrackModel) TableName() string {
	return "tracks"
}

// PlaylistModel is the media-facing projection of the playlists table.
type PlaylistModel struct {
	BaseModel
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Title      string              `gorm:"column:title;type:varchar(200);not null"`
	CoverImage MediaBindingColumns `gorm:"embedded;embeddedPrefix:cover_image_"`
}

// TableName returns the table name for GORM
func (PlaylistModel) TableName() string {
	return "playlists"
}
