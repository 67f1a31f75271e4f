package media

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecordInput() NewMediaRecordInput {
	return NewMediaRecordInput{
		OriginalFileName: "Cover Art.PNG",
		StoredFileName:   "5f1c7b1e-1111-4c1b-9c1b-000000000001.PNG",
		URL:              "/images/covers/5f1c7b1e-1111-4c1b-9c1b-000000000001.PNG",
		MIMEType:         "Image/PNG",
		ByteSize:         2048,
		Category:         CategoryImage,
		OwnerID:          uuid.New(),
	}
}

func TestNewMediaRecord(t *testing.T) {
	t.Run("creates record with valid input", func(t *testing.T) {
		in := validRecordInput()
		record, err := NewMediaRecord(in)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, in.StoredFileName, record.StoredFileName)
		assert.Equal(t, "image/png", record.MIMEType)
		assert.Equal(t, int64(2048), record.ByteSize)
		assert.True(t, record.IsImage())
		assert.False(t, record.CreatedAt.IsZero())
		assert.Equal(t, "2.0 KB", record.FormattedSize())
	})

	t.Run("rejects url that does not end in the stored name", func(t *testing.T) {
		in := validRecordInput()
		in.URL = "/images/other.png"
		_, err := NewMediaRecord(in)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects empty size", func(t *testing.T) {
		in := validRecordInput()
		in.ByteSize = 0
		_, err := NewMediaRecord(in)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		in := validRecordInput()
		in.OwnerID = uuid.Nil
		_, err := NewMediaRecord(in)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		in := validRecordInput()
		in.Category = "TEXT"
		_, err := NewMediaRecord(in)
		assert.True(t, IsValidationError(err))
	})
}

func TestMediaRecord_Ownership(t *testing.T) {
	record, err := NewMediaRecord(validRecordInput())
	require.NoError(t, err)

	assert.NoError(t, record.CheckOwner(record.OwnerID))
	err = record.CheckOwner(uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.True(t, IsOwnershipError(err))
}

func TestMediaRecord_UpdateMetadata(t *testing.T) {
	record, err := NewMediaRecord(validRecordInput())
	require.NoError(t, err)
	before := record.UpdatedAt

	width, height := 640, 480
	time.Sleep(time.Millisecond)
	err = record.UpdateMetadata(Metadata{ImageWidth: &width, ImageHeight: &height, AltText: "cover"})
	require.NoError(t, err)
	assert.Equal(t, 640, *record.Metadata.ImageWidth)
	assert.Equal(t, "cover", record.Metadata.AltText)
	assert.True(t, record.UpdatedAt.After(before))

	negative := -1
	err = record.UpdateMetadata(Metadata{Bitrate: &negative})
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "cover", record.Metadata.AltText)
}

func TestStorageUsage_Add(t *testing.T) {
	usage := NewStorageUsage(uuid.New())
	usage.Add(CategoryAudio, 100, 2)
	usage.Add(CategoryImage, 50, 1)
	usage.Add(CategoryAudio, 10, 1)

	assert.Equal(t, int64(160), usage.TotalBytes)
	assert.Equal(t, int64(4), usage.TotalFiles)
	assert.Equal(t, CategoryUsage{Bytes: 110, Files: 3}, usage.ByCategory[CategoryAudio])
	assert.Equal(t, CategoryUsage{}, usage.ByCategory[CategoryVideo])
}
