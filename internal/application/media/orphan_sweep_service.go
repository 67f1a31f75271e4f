package media

import (
	"context"
	"time"

	"github.com/uv/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrphanSweepConfig holds configuration for the orphan sweep
type OrphanSweepConfig struct {
	// Retention is how long an unreferenced file is kept before it is swept
	Retention time.Duration
	// BatchSize bounds the number of records handled per run
	BatchSize int
}

// DefaultOrphanSweepConfig returns the default configuration
func DefaultOrphanSweepConfig() OrphanSweepConfig {
	return OrphanSweepConfig{
		Retention: 7 * 24 * time.Hour,
		BatchSize: 500,
	}
}

// OrphanSweepService reclaims stored files that no entity references
type OrphanSweepService struct {
	registry *Registry
	storage  StorageBackend
	config   OrphanSweepConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrphanSweepService creates a new OrphanSweepService
func NewOrphanSweepService(registry *Registry, storage StorageBackend, config OrphanSweepConfig, logger *zap.Logger) *OrphanSweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOrphanSweepConfig()
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &OrphanSweepService{
		registry: registry,
		storage:  storage,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep removes orphans older than the configured retention
func (s *OrphanSweepService) Sweep(ctx context.Context) (*SweepResult, error) {
	return s.SweepOlderThan(ctx, s.now().UTC().Add(-s.config.Retention))
}

// SweepOlderThan removes orphaned files created before the cutoff.
// Per-file failures are logged and counted; they do not stop the run.
func (s *OrphanSweepService) SweepOlderThan(ctx context.Context, cutoff time.Time) (*SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "orphan_sweep", "sweep")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSweepCutoff, cutoff.Format(time.RFC3339))

	start := time.Now()
	result := &SweepResult{Cutoff: cutoff}

	orphans, err := s.registry.FindOrphaned(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.Scanned = len(orphans)

	for _, record := range orphans {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			telemetry.RecordError(span, err)
			return result, err
		}

		if s.storage.Delete(ctx, record.URL) {
			result.FilesDeleted++
		}
		if err := s.registry.Remove(ctx, record); err != nil {
			result.Failed++
			s.logger.Warn("Failed to remove orphaned media record",
				zap.String("media_id", record.ID.String()),
				zap.String("url", record.URL),
				zap.Error(err))
			continue
		}
		result.RecordsFreed++
		result.BytesFreed += record.ByteSize
	}

	result.Duration = time.Since(start)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSweepScanned, result.Scanned,
		telemetry.SpanAttrSweepFreed, result.RecordsFreed,
		telemetry.SpanAttrSweepFailed, result.Failed,
	)
	s.logger.Info("Orphaned media sweep finished",
		zap.Time("cutoff", cutoff),
		zap.Int("scanned", result.Scanned),
		zap.Int("files_deleted", result.FilesDeleted),
		zap.Int("records_freed", result.RecordsFreed),
		zap.Int64("bytes_freed", result.BytesFreed),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
