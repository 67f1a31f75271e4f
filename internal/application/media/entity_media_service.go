package media

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SlotUpload is a file destined for an entity slot
type SlotUpload struct {
	OriginalFileName string
	MIMEType         string
	Size             int64
	Body             io.Reader
}

// EntityMediaService attaches, replaces and detaches the media of users,
// tracks and playlists. Images accept uploads or external URLs; audio and
// waveforms are uploads only.
type EntityMediaService struct {
	bindings media.BindingRepository
	uploads  *UploadService
	binder   *Binder
	logger   *zap.Logger
}

// NewEntityMediaService creates a new EntityMediaService
func NewEntityMediaService(bindings media.BindingRepository, uploads *UploadService, binder *Binder, logger *zap.Logger) *EntityMediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityMediaService{
		bindings: bindings,
		uploads:  uploads,
		binder:   binder,
		logger:   logger,
	}
}

// Get returns the current binding of a slot
func (s *EntityMediaService) Get(ctx context.Context, ref media.SlotRef) (*BindingResponse, error) {
	if !ref.Slot.IsValid() {
		return nil, media.NewValidationError(fmt.Sprintf("Unknown media slot: %s", ref.Slot))
	}
	owned, err := s.bindings.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	resp := ToBindingResponse(ref, owned.Binding)
	return &resp, nil
}

// AttachUpload stores an uploaded file and makes it the slot's binding.
// The previous local file, if any, is removed once the new binding is saved.
func (s *EntityMediaService) AttachUpload(ctx context.Context, ref media.SlotRef, actorID uuid.UUID, file SlotUpload) (*BindingResponse, *MediaRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "entity_media", "attach_upload")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSlot, string(ref.Slot),
		telemetry.SpanAttrEntityID, ref.EntityID.String(),
	)

	spec, owned, err := s.loadOwned(ctx, ref, actorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	record, err := s.uploads.Upload(ctx, UploadInput{
		Category:         spec.Category,
		Subfolder:        spec.Subfolder,
		OwnerID:          actorID,
		OriginalFileName: file.OriginalFileName,
		MIMEType:         file.MIMEType,
		Size:             file.Size,
		Body:             file.Body,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}

	next := s.binder.LocalBinding(record)
	if err := s.bindings.Store(ctx, ref, next); err != nil {
		if !s.uploads.Discard(ctx, record.URL) {
			s.logger.Warn("Failed to remove upload after binding update failed",
				zap.String("url", record.URL))
		}
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	active := s.binder.Replace(ctx, owned.Binding, next)
	telemetry.AddEvent(span, "binding_replaced", "previous_state", string(owned.Binding.State()))

	s.logger.Info("Entity media replaced",
		zap.String("slot", string(ref.Slot)),
		zap.String("entity_id", ref.EntityID.String()),
		zap.String("previous_state", string(owned.Binding.State())),
		zap.String("url", record.URL),
	)

	resp := ToBindingResponse(ref, active)
	recordResp := ToMediaRecordResponse(record)
	return &resp, &recordResp, nil
}

// AttachExternalURL binds a remotely hosted image to the slot
func (s *EntityMediaService) AttachExternalURL(ctx context.Context, ref media.SlotRef, actorID uuid.UUID, rawURL string) (*BindingResponse, error) {
	spec, owned, err := s.loadOwned(ctx, ref, actorID)
	if err != nil {
		return nil, err
	}
	if !spec.AllowsURL {
		return nil, media.NewValidationError(fmt.Sprintf("The %s of a %s must be uploaded as a file", spec.Field, spec.Entity))
	}

	next, err := s.binder.BindExternalURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.bindings.Store(ctx, ref, next); err != nil {
		return nil, err
	}
	active := s.binder.Replace(ctx, owned.Binding, next)

	resp := ToBindingResponse(ref, active)
	return &resp, nil
}

// Detach clears the slot and removes its local file
func (s *EntityMediaService) Detach(ctx context.Context, ref media.SlotRef, actorID uuid.UUID) (*BindingResponse, error) {
	_, owned, err := s.loadOwned(ctx, ref, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.bindings.Store(ctx, ref, media.EmptyBinding()); err != nil {
		return nil, err
	}
	active := s.binder.Clear(ctx, owned.Binding)

	resp := ToBindingResponse(ref, active)
	return &resp, nil
}

func (s *EntityMediaService) loadOwned(ctx context.Context, ref media.SlotRef, actorID uuid.UUID) (media.SlotSpec, *media.OwnedBinding, error) {
	spec, ok := ref.Slot.Spec()
	if !ok {
		return media.SlotSpec{}, nil, media.NewValidationError(fmt.Sprintf("Unknown media slot: %s", ref.Slot))
	}

	owned, err := s.bindings.Load(ctx, ref)
	if err != nil {
		return media.SlotSpec{}, nil, err
	}
	if owned.OwnerID != actorID {
		return media.SlotSpec{}, nil, media.ErrNotOwner
	}
	return spec, owned, nil
}
