package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/shared"
)

// RecordFilter narrows owner listings
type RecordFilter struct {
	shared.Filter
	Category *Category
}

// CategoryUsage is the per-category part of a storage report
type CategoryUsage struct {
	Bytes int64 `json:"bytes"`
	Files int64 `json:"files"`
}

// StorageUsage summarises what one owner keeps in storage
type StorageUsage struct {
	OwnerID    uuid.UUID                  `json:"owner_id"`
	TotalBytes int64                      `json:"total_bytes"`
	TotalFiles int64                      `json:"total_files"`
	ByCategory map[Category]CategoryUsage `json:"by_category"`
}

// NewStorageUsage returns a zeroed report with every category present
func NewStorageUsage(ownerID uuid.UUID) *StorageUsage {
	usage := &StorageUsage{OwnerID: ownerID, ByCategory: make(map[Category]CategoryUsage)}
	for _, c := range AllCategories() {
		usage.ByCategory[c] = CategoryUsage{}
	}
	return usage
}

// Add folds a category row into the report
func (u *StorageUsage) Add(c Category, bytes, files int64) {
	current := u.ByCategory[c]
	current.Bytes += bytes
	current.Files += files
	u.ByCategory[c] = current
	u.TotalBytes += bytes
	u.TotalFiles += files
}

// RecordReader reads media records
type RecordReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MediaRecord, error)
	FindByStoredFileName(ctx context.Context, name string) (*MediaRecord, error)
	FindByURL(ctx context.Context, url string) (*MediaRecord, error)
}

// RecordFinder runs list and aggregate queries over media records
type RecordFinder interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter RecordFilter) ([]*MediaRecord, int64, error)
	SearchByOriginalFileName(ctx context.Context, ownerID uuid.UUID, query string, filter shared.Filter) ([]*MediaRecord, int64, error)
	SumUsageByOwner(ctx context.Context, ownerID uuid.UUID) (*StorageUsage, error)
	// FindOrphaned returns records created before the cutoff whose URL no
	// entity binding references.
	FindOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]*MediaRecord, error)
}

// RecordWriter persists media records
type RecordWriter interface {
	Save(ctx context.Context, record *MediaRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByStoredFileName(ctx context.Context, name string) (int64, error)
}

// RecordRepository is the full media record store
type RecordRepository interface {
	RecordReader
	RecordFinder
	RecordWriter
}

// BindingRepository loads and stores the binding of one entity slot
type BindingRepository interface {
	// Load returns ErrEntityNotFound when the entity does not exist
	Load(ctx context.Context, ref SlotRef) (*OwnedBinding, error)
	Store(ctx context.Context, ref SlotRef, binding Binding) error
}
