// Package storage provides the media storage backends: local filesystem,
// S3-compatible object storage and an in-memory backend for development.
package storage

import (
	mediaapp "github.com/uv/backend/internal/application/media"
	"go.uber.org/zap"
)

type backendOptions struct {
	logger   *zap.Logger
	observer Observer
	remover  mediaapp.RecordRemover
}

func defaultBackendOptions() backendOptions {
	return backendOptions{
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
}

// Option configures a storage backend
type Option func(*backendOptions)

// WithLogger sets the logger used for best-effort failures
func WithLogger(logger *zap.Logger) Option {
	return func(o *backendOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the telemetry observer
func WithObserver(observer Observer) Option {
	return func(o *backendOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithRecordRemover makes Delete also drop the registry record of the file
func WithRecordRemover(remover mediaapp.RecordRemover) Option {
	return func(o *backendOptions) {
		o.remover = remover
	}
}

func applyOptions(opts []Option) backendOptions {
	o := defaultBackendOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
