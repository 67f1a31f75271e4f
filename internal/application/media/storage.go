// Package media implements the use cases around uploaded media: validation,
// storage, the reference registry and entity bindings.
package media

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
)

// StoreRequest describes bytes to place under a category root
type StoreRequest struct {
	Category         media.Category
	Subfolder        string
	OriginalFileName string
	MIMEType         string
	Body             io.Reader
}

// StoredObject is the result of a successful store
type StoredObject struct {
	StoredFileName string
	URL            string
	Size           int64
}

// StorageBackend places and removes media bytes.
// Implemented by the infrastructure layer (local filesystem, S3, memory).
type StorageBackend interface {
	// Store writes the body under a fresh collision-free name and returns the
	// public URL. Failures are storage I/O errors; nothing is left behind.
	Store(ctx context.Context, req StoreRequest) (*StoredObject, error)

	// Delete removes the file behind a locally hosted URL together with its
	// registry record. Empty and external URLs return true without touching
	// storage. It never fails: problems are logged and reported as false.
	Delete(ctx context.Context, url string) bool
}

// ObjectLocation tells the transport layer where to read a stored file from.
// Exactly one of FilePath, Body and RedirectURL is set.
type ObjectLocation struct {
	FilePath    string
	Body        io.ReadSeeker
	ModTime     time.Time
	RedirectURL string
}

// ObjectLocator resolves the public URL of a stored file for downloads.
// A URL with nothing behind it yields media.ErrMediaNotFound.
type ObjectLocator interface {
	Locate(ctx context.Context, url string) (*ObjectLocation, error)
}

// RecordRemover drops the registry record of a stored file name.
// Storage backends use it to keep records and files in step.
type RecordRemover interface {
	RemoveByStoredFileName(ctx context.Context, storedFileName string) error
}

// UsageCache caches per-owner storage reports. Get returns nil, nil on a miss.
type UsageCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error)
	Set(ctx context.Context, usage *media.StorageUsage) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}
