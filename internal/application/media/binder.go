package media

import (
	"context"

	"github.com/uv/backend/internal/domain/media"
	"go.uber.org/zap"
)

// Binder applies replace and clear semantics to an entity's media binding.
// Old locally hosted files are removed best-effort; external URLs are never
// touched.
type Binder struct {
	storage StorageBackend
	logger  *zap.Logger
}

// NewBinder creates a new Binder
func NewBinder(storage StorageBackend, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{storage: storage, logger: logger}
}

// Replace releases the current binding and returns next as the active one.
// A failed delete of the old file does not stop the replace.
func (b *Binder) Replace(ctx context.Context, current, next media.Binding) media.Binding {
	if current.IsLocal() && current.URLValue() != next.URLValue() {
		b.release(ctx, current)
	}
	return next
}

// Clear releases the current binding and returns an empty one
func (b *Binder) Clear(ctx context.Context, current media.Binding) media.Binding {
	if current.IsLocal() {
		b.release(ctx, current)
	}
	return media.EmptyBinding()
}

// BindExternalURL validates a remote image URL and returns its binding
func (b *Binder) BindExternalURL(raw string) (media.Binding, error) {
	return media.NewExternalImageBinding(raw)
}

// LocalBinding builds the binding for a freshly recorded upload
func (b *Binder) LocalBinding(record *media.MediaRecord) media.Binding {
	return media.NewLocalBinding(record.URL, record.OriginalFileName, record.MIMEType, record.ByteSize)
}

func (b *Binder) release(ctx context.Context, current media.Binding) {
	url := current.URLValue()
	if !b.storage.Delete(ctx, url) {
		b.logger.Warn("Previous media file was not removed; leaving it for the orphan sweep",
			zap.String("url", url))
	}
}
