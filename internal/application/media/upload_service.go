package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// allowedSubfolders are the folders callers may place files in below a category root
var allowedSubfolders = map[string]bool{
	"":                       true,
	media.SubfolderAvatars:    true,
	media.SubfolderCovers:     true,
	media.SubfolderThumbnails: true,
	media.SubfolderWaveforms:  true,
}

// UploadService validates, stores and records uploads
type UploadService struct {
	validator *media.Validator
	storage   StorageBackend
	registry  *Registry
	logger    *zap.Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(validator *media.Validator, storage StorageBackend, registry *Registry, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		validator: validator,
		storage:   storage,
		registry:  registry,
		logger:    logger,
	}
}

// Policies exposes the validation policy table
func (s *UploadService) Policies() media.PolicyTable {
	return s.validator.Policies()
}

// Upload validates the input, stores the bytes and records the file.
// Validation failures happen before any I/O. If the record cannot be saved
// the stored file is removed again.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*media.MediaRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "upload", "store_file")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCategory, in.Category.String(),
		telemetry.SpanAttrSubfolder, in.Subfolder,
		telemetry.SpanAttrByteSize, in.Size,
		telemetry.SpanAttrOwnerID, in.OwnerID.String(),
	)

	subfolder := strings.Trim(in.Subfolder, "/")
	if !allowedSubfolders[subfolder] {
		err := media.NewValidationError(fmt.Sprintf("Invalid upload folder: %s", in.Subfolder))
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.validator.Validate(in.Category, in.MIMEType, in.OriginalFileName, in.Size); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	stored, err := s.storage.Store(ctx, StoreRequest{
		Category:         in.Category,
		Subfolder:        subfolder,
		OriginalFileName: in.OriginalFileName,
		MIMEType:         in.MIMEType,
		Body:             in.Body,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if stored.Size != in.Size {
		s.discard(ctx, stored.URL)
		err := media.NewStorageIOError(
			fmt.Sprintf("Upload incomplete: received %d of %d bytes", stored.Size, in.Size), nil)
		telemetry.RecordError(span, err)
		return nil, err
	}

	record, err := s.registry.RecordUpload(ctx, RecordUploadInput{
		OriginalFileName: in.OriginalFileName,
		StoredFileName:   stored.StoredFileName,
		URL:              stored.URL,
		MIMEType:         in.MIMEType,
		ByteSize:         stored.Size,
		Category:         in.Category,
		OwnerID:          in.OwnerID,
	})
	if err != nil {
		s.discard(ctx, stored.URL)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMediaID, record.ID.String(),
		telemetry.SpanAttrURL, record.URL,
	)
	s.logger.Info("Media uploaded",
		zap.String("media_id", record.ID.String()),
		zap.String("owner_id", record.OwnerID.String()),
		zap.String("category", record.Category.String()),
		zap.String("url", record.URL),
		zap.Int64("byte_size", record.ByteSize),
	)
	return record, nil
}

// Discard removes an upload that was stored but will not be used
func (s *UploadService) Discard(ctx context.Context, url string) bool {
	return s.storage.Delete(ctx, url)
}

func (s *UploadService) discard(ctx context.Context, url string) {
	if !s.storage.Delete(ctx, url) {
		s.logger.Warn("Failed to remove stored file after aborted upload", zap.String("url", url))
	}
}
