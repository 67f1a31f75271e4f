package media

import (
	"context"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/domain/shared"
	"github.com/uv/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MediaFileService serves an owner's own media library
type MediaFileService struct {
	registry *Registry
	storage  StorageBackend
	logger   *zap.Logger
}

// NewMediaFileService creates a new MediaFileService
func NewMediaFileService(registry *Registry, storage StorageBackend, logger *zap.Logger) *MediaFileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaFileService{registry: registry, storage: storage, logger: logger}
}

// GetByID returns one media record
func (s *MediaFileService) GetByID(ctx context.Context, id uuid.UUID) (*MediaRecordResponse, error) {
	record, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMediaRecordResponse(record)
	return &resp, nil
}

// List returns a page of the owner's media
func (s *MediaFileService) List(ctx context.Context, ownerID uuid.UUID, filter MediaListFilter) (*shared.Paginated[MediaRecordResponse], error) {
	f := media.RecordFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.Category != "" {
		c, err := media.ParseCategory(filter.Category)
		if err != nil {
			return nil, err
		}
		f.Category = &c
	}

	records, total, err := s.registry.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMediaRecordResponses(records), total, f.Page, f.PageSize)
	return &page, nil
}

// Search finds the owner's media by original file name
func (s *MediaFileService) Search(ctx context.Context, ownerID uuid.UUID, filter MediaSearchFilter) (*shared.Paginated[MediaRecordResponse], error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	records, total, err := s.registry.SearchByOriginalFileName(ctx, ownerID, filter.Query, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMediaRecordResponses(records), total, f.Page, f.PageSize)
	return &page, nil
}

// Stats returns the owner's storage usage
func (s *MediaFileService) Stats(ctx context.Context, ownerID uuid.UUID) (*media.StorageUsage, error) {
	return s.registry.StorageUsageForOwner(ctx, ownerID)
}

// UpdateMetadata changes descriptive attributes of a record the actor owns
func (s *MediaFileService) UpdateMetadata(ctx context.Context, id, actorID uuid.UUID, req UpdateMetadataRequest) (*MediaRecordResponse, error) {
	record, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.CheckOwner(actorID); err != nil {
		return nil, err
	}
	if err := record.UpdateMetadata(req.ToMetadata()); err != nil {
		return nil, err
	}
	if err := s.registry.Update(ctx, record); err != nil {
		return nil, err
	}
	resp := ToMediaRecordResponse(record)
	return &resp, nil
}

// Delete removes a media file the actor owns. The ownership check runs
// before anything is deleted. The record is dropped even when the physical
// file is already gone.
func (s *MediaFileService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "media_file", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrMediaID, id.String())

	record, err := s.registry.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := record.CheckOwner(actorID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	removed := s.storage.Delete(ctx, record.URL)
	if !removed {
		s.logger.Warn("Media file missing from storage, removing record only",
			zap.String("media_id", record.ID.String()),
			zap.String("url", record.URL))
		telemetry.AddEvent(span, "file_missing", telemetry.SpanAttrURL, record.URL)
	}

	if err := s.registry.Remove(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}
