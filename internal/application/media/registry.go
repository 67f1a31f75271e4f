package media

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var _ RecordRemover = (*Registry)(nil)

// Registry tracks the media records that mirror stored files.
// It performs no file I/O.
type Registry struct {
	repo   media.RecordRepository
	cache  UsageCache
	logger *zap.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithUsageCache enables caching of per-owner storage reports
func WithUsageCache(cache UsageCache) RegistryOption {
	return func(r *Registry) {
		r.cache = cache
	}
}

// WithRegistryLogger sets the registry logger
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new Registry
func NewRegistry(repo media.RecordRepository, opts ...RegistryOption) *Registry {
	r := &Registry{
		repo:   repo,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordUpload persists the record of a file that has just been stored
func (r *Registry) RecordUpload(ctx context.Context, in RecordUploadInput) (*media.MediaRecord, error) {
	record, err := media.NewMediaRecord(media.NewMediaRecordInput{
		OriginalFileName: in.OriginalFileName,
		StoredFileName:   in.StoredFileName,
		URL:              in.URL,
		MIMEType:         in.MIMEType,
		ByteSize:         in.ByteSize,
		Category:         in.Category,
		OwnerID:          in.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	if err := r.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	r.invalidateUsage(ctx, record.OwnerID)

	return record, nil
}

// FindByID returns a record by its id
func (r *Registry) FindByID(ctx context.Context, id uuid.UUID) (*media.MediaRecord, error) {
	record, err := r.repo.FindByID(ctx, id)
	return record, translateNotFound(err)
}

// FindByStoredFileName returns the record of a stored file name
func (r *Registry) FindByStoredFileName(ctx context.Context, name string) (*media.MediaRecord, error) {
	record, err := r.repo.FindByStoredFileName(ctx, name)
	return record, translateNotFound(err)
}

// FindByURL returns the record served at url
func (r *Registry) FindByURL(ctx context.Context, url string) (*media.MediaRecord, error) {
	record, err := r.repo.FindByURL(ctx, url)
	return record, translateNotFound(err)
}

// TotalStorageForOwner returns the bytes an owner keeps in storage
func (r *Registry) TotalStorageForOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	usage, err := r.StorageUsageForOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return usage.TotalBytes, nil
}

// StorageUsageForOwner returns the owner's storage broken down by category
func (r *Registry) StorageUsageForOwner(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, ownerID)
		if err != nil {
			r.logger.Warn("Storage usage cache read failed",
				zap.String("owner_id", ownerID.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	usage, err := r.repo.SumUsageByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, usage); err != nil {
			r.logger.Warn("Storage usage cache write failed",
				zap.String("owner_id", ownerID.String()), zap.Error(err))
		}
	}
	return usage, nil
}

// FindOrphaned returns records older than the cutoff that no entity references
func (r *Registry) FindOrphaned(ctx context.Context, olderThan time.Time, limit int) ([]*media.MediaRecord, error) {
	return r.repo.FindOrphaned(ctx, olderThan, limit)
}

// ListByOwner returns one page of an owner's records
func (r *Registry) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter media.RecordFilter) ([]*media.MediaRecord, int64, error) {
	return r.repo.FindByOwner(ctx, ownerID, filter)
}

// SearchByOriginalFileName searches an owner's records by original name
func (r *Registry) SearchByOriginalFileName(ctx context.Context, ownerID uuid.UUID, query string, filter shared.Filter) ([]*media.MediaRecord, int64, error) {
	return r.repo.SearchByOriginalFileName(ctx, ownerID, query, filter)
}

// Update persists changes to an existing record
func (r *Registry) Update(ctx context.Context, record *media.MediaRecord) error {
	return r.repo.Save(ctx, record)
}

// RemoveByStoredFileName deletes the record of a stored file name.
// A missing record is not an error.
func (r *Registry) RemoveByStoredFileName(ctx context.Context, storedFileName string) error {
	record, err := r.repo.FindByStoredFileName(ctx, storedFileName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := r.repo.Delete(ctx, record.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	r.invalidateUsage(ctx, record.OwnerID)
	return nil
}

// Remove deletes a record by id. A missing record is not an error.
func (r *Registry) Remove(ctx context.Context, record *media.MediaRecord) error {
	if err := r.repo.Delete(ctx, record.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	r.invalidateUsage(ctx, record.OwnerID)
	return nil
}

func (r *Registry) invalidateUsage(ctx context.Context, ownerID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, ownerID); err != nil {
		r.logger.Warn("Storage usage cache invalidation failed",
			zap.String("owner_id", ownerID.String()), zap.Error(err))
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return media.ErrMediaNotFound
	}
	return err
}
