//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/domain/shared"
	"github.com/uv/backend/internal/infrastructure/migration"
	"github.com/uv/backend/internal/infrastructure/persistence/models"
	"github.com/uv/backend/migrations"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("uv_media_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_OrphanQueryHonoursEverySlot(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	records := NewGormMediaRecordRepository(db)
	bindings := NewGormBindingRepository(db)

	owner := seedUser(t, db)
	track := seedTrack(t, db, owner)
	old := time.Now().UTC().Add(-48 * time.Hour)

	avatar := seedRecord(t, records, owner, media.CategoryImage, "me.png", "/images/avatars/a.png", 10, old)
	audio := seedRecord(t, records, owner, media.CategoryAudio, "song.mp3", "/audio/s.mp3", 20, old)
	orphan := seedRecord(t, records, owner, media.CategoryImage, "old.png", "/images/covers/o.png", 30, old)
	seedRecord(t, records, owner, media.CategoryImage, "fresh.png", "/images/covers/f.png", 40, time.Now().UTC())

	require.NoError(t, bindings.Store(ctx, media.SlotRef{Slot: media.SlotUserAvatar, EntityID: owner},
		media.NewLocalBinding(avatar.URL, avatar.OriginalFileName, "image/png", avatar.ByteSize)))
	require.NoError(t, bindings.Store(ctx, media.SlotRef{Slot: media.SlotTrackAudio, EntityID: track},
		media.NewLocalBinding(audio.URL, audio.OriginalFileName, "audio/mpeg", audio.ByteSize)))

	found, err := records.FindOrphaned(ctx, time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, orphan.ID, found[0].ID)

	loaded, err := bindings.Load(ctx, media.SlotRef{Slot: media.SlotTrackAudio, EntityID: track})
	require.NoError(t, err)
	assert.Equal(t, owner, loaded.OwnerID)
	assert.Equal(t, media.BindingLocal, loaded.Binding.State())
	assert.Equal(t, audio.URL, loaded.Binding.URLValue())
}

func TestPostgres_UsageAndSearch(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	records := NewGormMediaRecordRepository(db)
	owner := uuid.New()
	now := time.Now().UTC()

	seedRecord(t, records, owner, media.CategoryAudio, "Summer MIX.mp3", "/audio/1.mp3", 300, now)
	seedRecord(t, records, owner, media.CategoryImage, "cover.jpg", "/images/covers/2.jpg", 100, now)

	usage, err := records.SumUsageByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(400), usage.TotalBytes)

	found, total, err := records.SearchByOriginalFileName(ctx, owner, "summer mix", shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "/audio/1.mp3", found[0].URL)
}

func TestPostgres_StoredFileNameIsUnique(t *testing.T) {
	db := newPostgresDB(t)
	now := time.Now().UTC()
	row := func() *models.MediaFileModel {
		return &models.MediaFileModel{
			BaseModel:        models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			OriginalFileName: "a.png",
			StoredFileName:   "same.png",
			URL:              "/images/same.png",
			MIMEType:         "image/png",
			ByteSize:         1,
			Category:         media.CategoryImage,
			OwnerID:          uuid.New(),
		}
	}

	require.NoError(t, db.Create(row()).Error)
	assert.Error(t, db.Create(row()).Error)
}
