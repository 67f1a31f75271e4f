package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uv/backend/internal/domain/media"
	"go.uber.org/zap/zaptest"
)

func TestOrphanSweepService_Sweep(t *testing.T) {
	ctx := context.Background()
	fixedNow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("uses seven day retention by default", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewOrphanSweepService(NewRegistry(repo), newFakeStorage(), OrphanSweepConfig{}, nil)
		svc.now = func() time.Time { return fixedNow }

		expectedCutoff := fixedNow.Add(-7 * 24 * time.Hour)
		repo.On("FindOrphaned", mock.Anything, expectedCutoff, 500).Return([]*media.MediaRecord{}, nil)

		result, err := svc.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, expectedCutoff, result.Cutoff)
		assert.Equal(t, 0, result.Scanned)
		repo.AssertExpectations(t)
	})

	t.Run("removes files and records of orphans", func(t *testing.T) {
		repo := new(MockRecordRepository)
		storage := newFakeStorage()
		svc := NewOrphanSweepService(NewRegistry(repo), storage, OrphanSweepConfig{Retention: time.Hour, BatchSize: 10}, zaptest.NewLogger(t))

		withFile := newTestRecord(t, media.CategoryImage, "/images/covers/a.png", 100)
		fileGone := newTestRecord(t, media.CategoryAudio, "/audio/b.mp3", 50)
		storage.put(withFile.URL, "a")

		cutoff := fixedNow.Add(-time.Hour)
		repo.On("FindOrphaned", mock.Anything, cutoff, 10).Return([]*media.MediaRecord{withFile, fileGone}, nil)
		repo.On("Delete", mock.Anything, withFile.ID).Return(nil)
		repo.On("Delete", mock.Anything, fileGone.ID).Return(nil)

		result, err := svc.SweepOlderThan(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Scanned)
		assert.Equal(t, 1, result.FilesDeleted)
		assert.Equal(t, 2, result.RecordsFreed)
		assert.Equal(t, int64(150), result.BytesFreed)
		assert.False(t, storage.has(withFile.URL))
	})

	t.Run("record failures are counted and skipped", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewOrphanSweepService(NewRegistry(repo), newFakeStorage(), OrphanSweepConfig{}, nil)

		first := newTestRecord(t, media.CategoryImage, "/images/a.png", 1)
		second := newTestRecord(t, media.CategoryImage, "/images/b.png", 2)
		repo.On("FindOrphaned", mock.Anything, mock.Anything, 500).Return([]*media.MediaRecord{first, second}, nil)
		repo.On("Delete", mock.Anything, first.ID).Return(errors.New("locked"))
		repo.On("Delete", mock.Anything, second.ID).Return(nil)

		result, err := svc.SweepOlderThan(ctx, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.RecordsFreed)
		assert.Equal(t, int64(2), result.BytesFreed)
	})

	t.Run("query failure aborts the run", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewOrphanSweepService(NewRegistry(repo), newFakeStorage(), OrphanSweepConfig{}, nil)
		repo.On("FindOrphaned", mock.Anything, mock.Anything, 500).Return(nil, errors.New("db down"))

		_, err := svc.SweepOlderThan(ctx, fixedNow)
		assert.EqualError(t, err, "db down")
	})

	t.Run("cancelled context stops between records", func(t *testing.T) {
		repo := new(MockRecordRepository)
		svc := NewOrphanSweepService(NewRegistry(repo), newFakeStorage(), OrphanSweepConfig{}, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		record := newTestRecord(t, media.CategoryImage, "/images/a.png", 1)
		repo.On("FindOrphaned", mock.MatchedBy(func(c context.Context) bool { return c.Err() != nil }), mock.Anything, 500).Return([]*media.MediaRecord{record}, nil)

		result, err := svc.SweepOlderThan(cancelled, fixedNow)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.RecordsFreed)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
